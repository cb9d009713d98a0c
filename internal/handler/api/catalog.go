// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/vitrine/internal/model"
	"github.com/olegiv/vitrine/internal/service"
)

// ContentRequest is the body of a create request.
type ContentRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	ImageURL    string            `json:"image_url"`
	Attributes  map[string]string `json:"attributes"`
}

// ContentPatchRequest is the body of an update request. Omitted fields are kept.
type ContentPatchRequest struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	Category    *string           `json:"category"`
	ImageURL    *string           `json:"image_url"`
	Attributes  map[string]string `json:"attributes"`
}

// catalogHandler serves one content kind.
type catalogHandler struct {
	*Handler
	catalog *service.CatalogService
}

type contentTransition func(ctx context.Context, catalog *service.CatalogService, actor model.User, id int64) (model.ContentItem, error)

func (h *Handler) catalogRoutes(catalog *service.CatalogService) func(chi.Router) {
	ch := &catalogHandler{Handler: h, catalog: catalog}
	return func(r chi.Router) {
		r.Get("/", ch.list)
		r.Post("/", ch.create)
		r.Get("/{ref}", ch.get)
		r.Put("/{id}", ch.update)
		r.Post("/{id}/publish", ch.transition(h.Workflow.PublishContent))
		r.Post("/{id}/unpublish", ch.transition(h.Workflow.UnpublishContent))
		r.Post("/{id}/archive", ch.transition(h.Workflow.ArchiveContent))
		r.Delete("/{id}", ch.delete)
	}
}

// list handles GET /?status=&category=.
func (ch *catalogHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	category := q.Get("category")
	if category != "" && !ch.catalog.Kind().HasCategory(category) {
		WriteBadRequest(w, "Unknown category", map[string]string{"category": "not a " + ch.catalog.Kind().Name + " category"})
		return
	}

	var (
		items []model.ContentItem
		err   error
	)
	if raw := q.Get("status"); raw != "" {
		status, known := model.ParseContentStatus(raw)
		if !known {
			WriteBadRequest(w, "Unknown status", map[string]string{"status": "must be draft, published or archived"})
			return
		}
		items, err = ch.catalog.ListByStatus(ctx, status)
		if err == nil && category != "" {
			items = filterCategory(items, category)
		}
	} else {
		items, err = ch.catalog.ListByCategory(ctx, category, false)
	}
	if err != nil {
		ch.writeServiceError(w, r, err)
		return
	}
	WriteList(w, items, 0)
}

func filterCategory(items []model.ContentItem, category string) []model.ContentItem {
	out := items[:0]
	for _, it := range items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	return out
}

func (ch *catalogHandler) get(w http.ResponseWriter, r *http.Request) {
	item, err := ch.catalog.GetBySlugOrID(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		ch.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, item, nil)
}

func (ch *catalogHandler) create(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	var req ContentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	item, err := ch.Workflow.CreateContent(r.Context(), ch.catalog, user, service.ContentInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		Attributes:  req.Attributes,
	})
	if err != nil {
		ch.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, item)
}

func (ch *catalogHandler) update(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	var req ContentPatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	item, err := ch.Workflow.UpdateContent(r.Context(), ch.catalog, user, id, service.ContentPatch{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		Attributes:  req.Attributes,
	})
	if err != nil {
		ch.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, item, nil)
}

func (ch *catalogHandler) transition(fn contentTransition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := actor(w, r)
		if !ok {
			return
		}
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}
		item, err := fn(r.Context(), ch.catalog, user, id)
		if err != nil {
			ch.writeServiceError(w, r, err)
			return
		}
		WriteSuccess(w, item, nil)
	}
}

func (ch *catalogHandler) delete(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	if err := ch.Workflow.DeleteContent(r.Context(), ch.catalog, user, id); err != nil {
		ch.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
