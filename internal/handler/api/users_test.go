// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/vitrine/internal/model"
	"github.com/olegiv/vitrine/internal/service"
)

func TestMe_RequiresIdentity(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/me", "", nil)

	assertStatusCode(t, rec, http.StatusUnauthorized)
	assertErrorResponse(t, rec, "unauthorized")
}

func TestMe_BootstrapAndPending(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/me", "root", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	admin := decodeData[MeResponse](t, rec)
	assert.Equal(t, model.RoleAdmin, admin.User.Role)
	assert.True(t, admin.IsAdmin)
	assert.True(t, admin.CanEdit)

	rec = s.do(t, http.MethodGet, "/api/v1/me", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decodeData[MeResponse](t, rec)
	assert.Equal(t, model.RolePending, pending.User.Role)
	assert.False(t, pending.CanEdit)

	rec = s.do(t, http.MethodGet, "/api/v1/me", "root", nil)
	assert.Equal(t, int64(1), decodeData[MeResponse](t, rec).UnreadCount)
}

func TestApprovalFlow(t *testing.T) {
	s := newTestServer(t, nil)
	s.user(t, "root")
	bob := s.user(t, "bob")

	// Pending users reach their own endpoints but not the dashboard.
	assertStatusCode(t, s.do(t, http.MethodGet, "/api/v1/products", "bob", nil), http.StatusForbidden)

	adminInbox := s.notifications(t, "root")
	require.Len(t, adminInbox, 1)
	assert.Equal(t, model.NotificationUserPending, adminInbox[0].Type)
	assert.Equal(t, service.PendingUsersPath, adminInbox[0].Link)

	rec := s.do(t, http.MethodGet, "/api/v1/users/pending", "root", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decodeData[[]model.User](t, rec)
	require.Len(t, pending, 1)
	assert.Equal(t, bob.ID, pending[0].ID)

	rec = s.do(t, http.MethodPost, pathf("/api/v1/users/%d/approve", bob.ID), "root", RoleRequest{Role: model.RoleEditor})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.RoleEditor, decodeData[model.User](t, rec).Role)

	bobInbox := s.notifications(t, "bob")
	assert.Equal(t, []model.NotificationType{model.NotificationUserApproved}, notificationTypes(bobInbox))
	assertStatusCode(t, s.do(t, http.MethodGet, "/api/v1/products", "bob", nil), http.StatusOK)

	// Approving twice is a state conflict.
	rec = s.do(t, http.MethodPost, pathf("/api/v1/users/%d/approve", bob.ID), "root", RoleRequest{Role: model.RoleEditor})
	assertStatusCode(t, rec, http.StatusConflict)
	assertErrorResponse(t, rec, "invalid_state")
}

func TestApproveUser_InvalidRole(t *testing.T) {
	s := newTestServer(t, nil)
	s.user(t, "root")
	bob := s.user(t, "bob")

	for _, role := range []model.Role{model.RolePending, "owner"} {
		rec := s.do(t, http.MethodPost, pathf("/api/v1/users/%d/approve", bob.ID), "root", RoleRequest{Role: role})
		assertStatusCode(t, rec, http.StatusBadRequest)
		resp := assertErrorResponse(t, rec, "validation_error")
		assert.Contains(t, resp.Error.Details, "role")
	}
}

func TestUserRoutes_AdminOnly(t *testing.T) {
	s := newTestServer(t, nil)
	s.user(t, "root")
	s.editor(t, "root", "ed")

	for _, path := range []string{"/api/v1/users", "/api/v1/users/pending"} {
		rec := s.do(t, http.MethodGet, path, "ed", nil)
		assertStatusCode(t, rec, http.StatusForbidden)
	}
}

func TestRejectUser(t *testing.T) {
	s := newTestServer(t, nil)
	root := s.user(t, "root")
	bob := s.user(t, "bob")

	rec := s.do(t, http.MethodDelete, pathf("/api/v1/users/%d", bob.ID), "root", nil)
	assertStatusCode(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodDelete, pathf("/api/v1/users/%d", bob.ID), "root", nil)
	assertStatusCode(t, rec, http.StatusNotFound)

	rec = s.do(t, http.MethodDelete, pathf("/api/v1/users/%d", root.ID), "root", nil)
	assertStatusCode(t, rec, http.StatusForbidden)
}

func TestChangeRoleAndToggleActive(t *testing.T) {
	s := newTestServer(t, nil)
	root := s.user(t, "root")
	ed := s.editor(t, "root", "ed")

	rec := s.do(t, http.MethodPut, pathf("/api/v1/users/%d/role", ed.ID), "root", RoleRequest{Role: model.RoleAdmin})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.RoleAdmin, decodeData[model.User](t, rec).Role)

	rec = s.do(t, http.MethodGet, "/api/v1/users?role=admin", "root", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]model.User](t, rec), 2)

	rec = s.do(t, http.MethodGet, "/api/v1/users?role=owner", "root", nil)
	assertStatusCode(t, rec, http.StatusBadRequest)

	rec = s.do(t, http.MethodPost, pathf("/api/v1/users/%d/toggle-active", ed.ID), "root", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeData[model.User](t, rec).Active)

	// Deactivated admins lose dashboard access immediately.
	assertStatusCode(t, s.do(t, http.MethodGet, "/api/v1/products", "ed", nil), http.StatusForbidden)

	rec = s.do(t, http.MethodPost, pathf("/api/v1/users/%d/toggle-active", root.ID), "root", nil)
	assertStatusCode(t, rec, http.StatusForbidden)
}
