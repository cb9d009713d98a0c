// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/vitrine/internal/model"
	"github.com/olegiv/vitrine/internal/seo"
	"github.com/olegiv/vitrine/internal/service"
)

// Sitemap handles GET /sitemap.xml with every published product and gallery
// item under SiteURL.
func (h *Handler) Sitemap(w http.ResponseWriter, r *http.Request) {
	builder := seo.NewSitemapBuilder(h.SiteURL)
	builder.AddHomepage()

	sections := []struct {
		path    string
		catalog *service.CatalogService
	}{
		{"/products", h.Products},
		{"/gallery", h.Gallery},
	}
	for _, sec := range sections {
		items, err := sec.catalog.ListPublished(r.Context(), "")
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		builder.AddSection(sec.path, sitemapItems(items))
	}

	out, err := builder.Build()
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(out)
}

func sitemapItems(items []model.ContentItem) []seo.SitemapItem {
	out := make([]seo.SitemapItem, 0, len(items))
	for _, it := range items {
		out = append(out, seo.SitemapItem{Slug: it.Slug, UpdatedAt: it.UpdatedAt})
	}
	return out
}
