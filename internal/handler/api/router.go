// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/olegiv/vitrine/internal/middleware"
)

// RouterConfig carries the middleware the router mounts around the handlers.
type RouterConfig struct {
	Sessions    *scs.SessionManager
	Identity    *middleware.Identity
	CSRF        func(http.Handler) http.Handler
	CORSOrigins []string
	// RateLimiter guards public submissions. Nil disables limiting.
	RateLimiter   *middleware.IPRateLimiter
	IsDevelopment bool
	LogRequests   bool
}

// Routes builds the full HTTP handler tree.
func (h *Handler) Routes(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if cfg.LogRequests {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment)))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			ExposedHeaders:   []string{"Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", h.Health)
	r.Get("/sitemap.xml", h.Sitemap)

	r.Route("/api/v1/public", func(r chi.Router) {
		r.Route("/products", h.publicCatalogRoutes(h.Products))
		r.Route("/gallery", h.publicCatalogRoutes(h.Gallery))

		r.Group(func(r chi.Router) {
			if cfg.RateLimiter != nil {
				r.Use(cfg.RateLimiter.Middleware)
			}
			r.Post("/contact", h.SubmitContact)
			r.Post("/leads", h.SubmitLead)
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Sessions != nil {
			r.Use(cfg.Sessions.LoadAndSave)
		}
		if cfg.CSRF != nil {
			r.Use(cfg.CSRF)
		}
		r.Use(cfg.Identity.Authenticate)

		// Reachable by pending users so the dashboard can explain the wait.
		r.Get("/me", h.Me)
		r.Get("/notifications", h.ListNotifications)
		r.Get("/notifications/unread-count", h.UnreadCount)
		r.Post("/notifications/read-all", h.MarkAllNotificationsRead)
		r.Post("/notifications/{id}/read", h.MarkNotificationRead)
		r.Delete("/notifications/{id}", h.RemoveNotification)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireApproved)

			r.Route("/products", h.catalogRoutes(h.Products))
			r.Route("/gallery", h.catalogRoutes(h.Gallery))

			r.Get("/leads", h.ListLeads)
			r.Post("/leads/{id}/assign", h.AssignLead)
			r.Post("/leads/{id}/close", h.CloseLead)
			r.Get("/contacts", h.ListContacts)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/", h.ListUsers)
			r.Get("/pending", h.ListPendingUsers)
			r.Post("/{id}/approve", h.ApproveUser)
			r.Delete("/{id}", h.RejectUser)
			r.Put("/{id}/role", h.ChangeUserRole)
			r.Post("/{id}/toggle-active", h.ToggleUserActive)
		})
	})

	return r
}
