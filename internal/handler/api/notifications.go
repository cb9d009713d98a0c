// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/vitrine/internal/service"
)

// ListNotifications handles GET /api/v1/notifications?limit=.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	items, err := h.Notifications.GetForSubject(r.Context(), service.ViewerOf(user), limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteList(w, items, limit)
}

// UnreadCount handles GET /api/v1/notifications/unread-count.
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	count, err := h.Notifications.UnreadCount(r.Context(), service.ViewerOf(user))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]int64{"unread": count}, nil)
}

// MarkNotificationRead handles POST /api/v1/notifications/{id}/read.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	if err := h.Notifications.MarkRead(r.Context(), service.ViewerOf(user), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllNotificationsRead handles POST /api/v1/notifications/read-all.
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	marked, err := h.Notifications.MarkAllRead(r.Context(), service.ViewerOf(user))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]int64{"marked": marked}, nil)
}

// RemoveNotification handles DELETE /api/v1/notifications/{id}.
func (h *Handler) RemoveNotification(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	if err := h.Notifications.Remove(r.Context(), service.ViewerOf(user), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
