// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"

	"github.com/olegiv/vitrine/internal/model"
	"github.com/olegiv/vitrine/internal/service"
)

// MeResponse describes the calling user.
type MeResponse struct {
	User        model.User `json:"user"`
	CanEdit     bool       `json:"can_edit"`
	IsAdmin     bool       `json:"is_admin"`
	UnreadCount int64      `json:"unread_count"`
}

// RoleRequest carries a role for approval or reassignment.
type RoleRequest struct {
	Role model.Role `json:"role"`
}

// Me handles GET /api/v1/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	unread, err := h.Notifications.UnreadCount(r.Context(), service.ViewerOf(user))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, MeResponse{
		User:        user,
		CanEdit:     user.CanEdit(),
		IsAdmin:     user.CanAdminister(),
		UnreadCount: unread,
	}, nil)
}

// ListUsers handles GET /api/v1/users?role=.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var (
		users []model.User
		err   error
	)
	if raw := r.URL.Query().Get("role"); raw != "" {
		role, known := model.ParseRole(raw)
		if !known {
			WriteBadRequest(w, "Unknown role", map[string]string{"role": "must be pending, editor or admin"})
			return
		}
		users, err = h.Users.ListByRole(r.Context(), role)
	} else {
		users, err = h.Users.List(r.Context())
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteList(w, users, 0)
}

// ListPendingUsers handles GET /api/v1/users/pending.
func (h *Handler) ListPendingUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.ListPending(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteList(w, users, 0)
}

// ApproveUser handles POST /api/v1/users/{id}/approve.
func (h *Handler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	h.userRoleAction(w, r, h.Workflow.ApproveUser)
}

// ChangeUserRole handles PUT /api/v1/users/{id}/role.
func (h *Handler) ChangeUserRole(w http.ResponseWriter, r *http.Request) {
	h.userRoleAction(w, r, h.Workflow.ChangeUserRole)
}

// RejectUser handles DELETE /api/v1/users/{id}. Only pending users can be rejected.
func (h *Handler) RejectUser(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, h.Workflow.RejectUser)
}

// ToggleUserActive handles POST /api/v1/users/{id}/toggle-active.
func (h *Handler) ToggleUserActive(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, h.Workflow.ToggleUserActive)
}

type userActionFunc func(ctx context.Context, actor model.User, id int64) (model.User, error)

type userRoleActionFunc func(ctx context.Context, actor model.User, id int64, role model.Role) (model.User, error)

func (h *Handler) userAction(w http.ResponseWriter, r *http.Request, action userActionFunc) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	updated, err := action(r.Context(), user, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, updated, nil)
}

func (h *Handler) userRoleAction(w http.ResponseWriter, r *http.Request, action userRoleActionFunc) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	var req RoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	updated, err := action(r.Context(), user, id, req.Role)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, updated, nil)
}
