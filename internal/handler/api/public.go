// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/vitrine/internal/service"
	"github.com/olegiv/vitrine/internal/util"
)

// ContactRequest is a public contact form submission.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// LeadRequest is a public lead capture submission.
type LeadRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Company  string `json:"company"`
	Interest string `json:"interest"`
	Message  string `json:"message"`
}

// Receipt acknowledges a public submission without echoing stored data.
type Receipt struct {
	ID         int64     `json:"id"`
	ReceivedAt time.Time `json:"received_at"`
}

func (h *Handler) publicCatalogRoutes(catalog *service.CatalogService) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			items, err := catalog.ListByCategory(r.Context(), r.URL.Query().Get("category"), true)
			if err != nil {
				h.writeServiceError(w, r, err)
				return
			}
			WriteList(w, items, 0)
		})
		r.Get("/{ref}", func(w http.ResponseWriter, r *http.Request) {
			item, err := catalog.GetPublished(r.Context(), chi.URLParam(r, "ref"))
			if err != nil {
				h.writeServiceError(w, r, err)
				return
			}
			WriteSuccess(w, item, nil)
		})
	}
}

func (h *Handler) requestMeta(r *http.Request) service.RequestMeta {
	return service.RequestMeta{
		IPAddress: util.ClientIP(r, h.TrustProxy),
		UserAgent: r.UserAgent(),
	}
}

// SubmitContact handles POST /api/v1/public/contact.
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.Workflow.CaptureContact(r.Context(), service.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
	}, h.requestMeta(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, Receipt{ID: c.ID, ReceivedAt: c.CreatedAt})
}

// SubmitLead handles POST /api/v1/public/leads.
func (h *Handler) SubmitLead(w http.ResponseWriter, r *http.Request) {
	var req LeadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	lead, err := h.Workflow.CaptureLead(r.Context(), service.LeadInput{
		Name:     req.Name,
		Email:    req.Email,
		Company:  req.Company,
		Interest: req.Interest,
		Message:  req.Message,
	}, h.requestMeta(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, Receipt{ID: lead.ID, ReceivedAt: lead.CreatedAt})
}
