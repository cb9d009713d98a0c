// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON HTTP API for the dashboard and the public
// marketing site.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/vitrine/internal/cache"
	"github.com/olegiv/vitrine/internal/middleware"
	"github.com/olegiv/vitrine/internal/model"
	"github.com/olegiv/vitrine/internal/service"
)

// maxBodyBytes limits JSON request bodies.
const maxBodyBytes = 1 << 20

// Deps are the services the API handlers call.
type Deps struct {
	DB            *sql.DB
	Users         *service.UserService
	Notifications *service.NotificationService
	Inquiries     *service.InquiryService
	Products      *service.CatalogService
	Gallery       *service.CatalogService
	Workflow      *service.Workflow
	// Cache is reported by the health check; nil skips it.
	Cache  cache.Cacher
	Logger *slog.Logger
	// TrustProxy makes client IPs come from X-Real-IP / X-Forwarded-For.
	TrustProxy bool
	// SiteURL is the public site base used in the sitemap.
	SiteURL string
	Version string
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	Deps
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Handler{Deps: deps}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains list metadata.
type Meta struct {
	Total int `json:"total"`
	Limit int `json:"limit,omitempty"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteList writes a list with its count in meta.
func WriteList[T any](w http.ResponseWriter, items []T, limit int) {
	if items == nil {
		items = []T{}
	}
	WriteSuccess(w, items, &Meta{Total: len(items), Limit: limit})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
}

// writeServiceError maps service errors onto HTTP statuses. Unexpected
// errors are logged and reported as 500 without detail.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		details := map[string]string{}
		if verr.Field != "" {
			details[verr.Field] = verr.Message
		}
		WriteError(w, http.StatusBadRequest, "validation_error", verr.Error(), details)
	case errors.Is(err, service.ErrNotFound):
		WriteNotFound(w, err.Error())
	case errors.Is(err, service.ErrInvalidState):
		WriteError(w, http.StatusConflict, "invalid_state", err.Error(), nil)
	case errors.Is(err, service.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden", err.Error(), nil)
	default:
		h.Logger.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
		)
		WriteInternalError(w)
	}
}

// actor returns the authenticated user, writing 401 when there is none.
func actor(w http.ResponseWriter, r *http.Request) (model.User, bool) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
	}
	return user, ok
}

// parseIDParam parses the {id} URL parameter, writing 400 when invalid.
func parseIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		WriteBadRequest(w, "Invalid ID", map[string]string{"id": "must be a positive integer"})
		return 0, false
	}
	return id, true
}

// parseLimit reads the optional ?limit= query parameter. Zero means default.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		WriteBadRequest(w, "Invalid limit", map[string]string{"limit": "must be a non-negative integer"})
		return 0, false
	}
	return limit, true
}

// decodeJSON decodes the request body into dst, writing 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid JSON body: %v", err), nil)
		return false
	}
	return true
}
