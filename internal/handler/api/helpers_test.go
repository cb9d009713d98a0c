// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/vitrine/internal/middleware"
	"github.com/olegiv/vitrine/internal/model"
	"github.com/olegiv/vitrine/internal/service"
	"github.com/olegiv/vitrine/internal/session"
	"github.com/olegiv/vitrine/internal/testutil"
)

type testServer struct {
	db      *sql.DB
	handler *Handler
	router  http.Handler
}

// newTestServer wires the real services over a migrated test database.
// limiter may be nil.
func newTestServer(t *testing.T, limiter *middleware.IPRateLimiter) *testServer {
	t.Helper()

	db := testutil.TestDB(t)
	logger := testutil.TestLoggerSilent()

	users := service.NewUserService(db)
	notifications := service.NewNotificationService(db)
	inquiries := service.NewInquiryService(db, nil)
	wf := service.NewWorkflow(users, notifications, inquiries,
		service.NewEventService(db, logger), nil, "https://example.com/dashboard", logger)

	h := NewHandler(Deps{
		DB:            db,
		Users:         users,
		Notifications: notifications,
		Inquiries:     inquiries,
		Products:      service.NewCatalogService(db, model.ProductKind, nil, logger),
		Gallery:       service.NewCatalogService(db, model.GalleryKind, nil, logger),
		Workflow:      wf,
		Logger:        logger,
		SiteURL:       "https://www.example.com",
		Version:       "test",
	})

	sm := session.New(db, true)
	router := h.Routes(RouterConfig{
		Sessions:      sm,
		Identity:      middleware.NewIdentity(sm, users, wf, middleware.DefaultIdentityHeaders(), logger),
		RateLimiter:   limiter,
		IsDevelopment: true,
	})

	return &testServer{db: db, handler: h, router: router}
}

// do sends a request as subject; an empty subject sends no identity headers.
func (s *testServer) do(t *testing.T, method, path, subject string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "198.51.100.7:4321"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if subject != "" {
		req.Header.Set("X-Auth-Subject", subject)
		req.Header.Set("X-Auth-Email", subject+"@example.com")
		req.Header.Set("X-Auth-Name", subject)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// user registers subject through the API and returns the stored user.
func (s *testServer) user(t *testing.T, subject string) model.User {
	t.Helper()
	rec := s.do(t, http.MethodGet, "/api/v1/me", subject, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeData[MeResponse](t, rec).User
}

// editor registers subject and has admin approve it as an editor.
func (s *testServer) editor(t *testing.T, admin, subject string) model.User {
	t.Helper()
	u := s.user(t, subject)
	rec := s.do(t, http.MethodPost, pathf("/api/v1/users/%d/approve", u.ID), admin, RoleRequest{Role: model.RoleEditor})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeData[model.User](t, rec)
}

func (s *testServer) notifications(t *testing.T, subject string) []model.Notification {
	t.Helper()
	rec := s.do(t, http.MethodGet, "/api/v1/notifications", subject, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeData[[]model.Notification](t, rec)
}

// decodeData unmarshals the data field of a success envelope.
func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T     `json:"data"`
		Meta *Meta `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Data
}

// assertStatusCode checks that the response has the expected status code.
func assertStatusCode(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("expected status %d, got %d: %s", expected, w.Code, w.Body.String())
	}
}

// assertErrorResponse unmarshals and validates an error response.
func assertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedCode string) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error.Code != expectedCode {
		t.Errorf("expected code '%s', got %s", expectedCode, resp.Error.Code)
	}
	return resp
}

func notificationTypes(ns []model.Notification) []model.NotificationType {
	out := make([]model.NotificationType, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Type)
	}
	return out
}


func pathf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
