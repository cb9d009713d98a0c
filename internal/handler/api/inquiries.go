// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/vitrine/internal/model"
)

// AssignLeadRequest names the team member taking over a lead.
type AssignLeadRequest struct {
	UserID int64 `json:"user_id"`
}

// ListLeads handles GET /api/v1/leads?status=&limit=.
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	status := model.LeadStatus(r.URL.Query().Get("status"))
	leads, err := h.Inquiries.ListLeads(r.Context(), user, status, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteList(w, leads, limit)
}

// AssignLead handles POST /api/v1/leads/{id}/assign.
func (h *Handler) AssignLead(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	var req AssignLeadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	lead, err := h.Workflow.AssignLead(r.Context(), user, id, req.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, lead, nil)
}

// CloseLead handles POST /api/v1/leads/{id}/close.
func (h *Handler) CloseLead(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	lead, err := h.Workflow.CloseLead(r.Context(), user, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, lead, nil)
}

// ListContacts handles GET /api/v1/contacts?limit=.
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	contacts, err := h.Inquiries.ListContacts(r.Context(), user, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteList(w, contacts, limit)
}
