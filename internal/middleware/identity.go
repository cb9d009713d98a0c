// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/vitrine/internal/model"
	"github.com/olegiv/vitrine/internal/service"
	"github.com/olegiv/vitrine/internal/session"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyUser holds the live model.User of the request.
const ContextKeyUser ContextKey = "user"

// IdentityHeaders names the request headers the upstream identity proxy sets.
type IdentityHeaders struct {
	Subject string
	Email   string
	Name    string
	Avatar  string
}

// DefaultIdentityHeaders returns the X-Auth-* header names.
func DefaultIdentityHeaders() IdentityHeaders {
	return IdentityHeaders{
		Subject: "X-Auth-Subject",
		Email:   "X-Auth-Email",
		Name:    "X-Auth-Name",
		Avatar:  "X-Auth-Avatar",
	}
}

// Claims are the identity attributes asserted for one request.
type Claims struct {
	Subject   string
	Email     string
	Name      string
	AvatarURL string
}

// ClaimsFromRequest reads the identity headers from r.
func ClaimsFromRequest(r *http.Request, h IdentityHeaders) Claims {
	get := func(name string) string {
		if name == "" {
			return ""
		}
		return strings.TrimSpace(r.Header.Get(name))
	}
	return Claims{
		Subject:   get(h.Subject),
		Email:     get(h.Email),
		Name:      get(h.Name),
		AvatarURL: get(h.Avatar),
	}
}

// Profile converts the claims into the profile the user directory stores.
func (c Claims) Profile() service.Profile {
	return service.Profile{
		SubjectID: c.Subject,
		Email:     c.Email,
		Name:      c.Name,
		AvatarURL: c.AvatarURL,
	}
}

// Identity binds identity proxy claims to directory users through the session.
type Identity struct {
	sm       *scs.SessionManager
	users    *service.UserService
	workflow *service.Workflow
	headers  IdentityHeaders
	logger   *slog.Logger
}

// NewIdentity creates the identity bridge.
func NewIdentity(sm *scs.SessionManager, users *service.UserService, workflow *service.Workflow, headers IdentityHeaders, logger *slog.Logger) *Identity {
	if logger == nil {
		logger = slog.Default()
	}
	return &Identity{
		sm:       sm,
		users:    users,
		workflow: workflow,
		headers:  headers,
		logger:   logger,
	}
}

// Authenticate requires identity claims and loads the live user into the
// request context. The subject is registered on the first request of a
// session or whenever the asserted subject changes.
func (id *Identity) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromRequest(r, id.headers)
		if claims.Subject == "" {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
			return
		}

		ctx := r.Context()
		user, err := id.resolve(ctx, claims)
		if err != nil {
			id.logger.Error("identity resolution failed", "error", err, "path", r.URL.Path)
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
			return
		}

		ctx = context.WithValue(ctx, ContextKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (id *Identity) resolve(ctx context.Context, claims Claims) (model.User, error) {
	userID := id.sm.GetInt64(ctx, session.KeyUserID)
	subject := id.sm.GetString(ctx, session.KeySubject)

	if userID != 0 && subject == claims.Subject {
		user, err := id.users.Get(ctx, userID)
		if err == nil && user.SubjectID == claims.Subject {
			return user, nil
		}
		if err != nil && !errors.Is(err, service.ErrNotFound) {
			return model.User{}, err
		}
		id.logger.Info("session user no longer exists, re-registering", "user_id", userID)
		if err := id.sm.Destroy(ctx); err != nil {
			return model.User{}, err
		}
	}

	return id.register(ctx, claims)
}

func (id *Identity) register(ctx context.Context, claims Claims) (model.User, error) {
	user, _, err := id.workflow.Register(ctx, claims.Profile())
	if err != nil {
		return model.User{}, err
	}
	if err := id.sm.RenewToken(ctx); err != nil {
		return model.User{}, err
	}
	id.sm.Put(ctx, session.KeyUserID, user.ID)
	id.sm.Put(ctx, session.KeySubject, user.SubjectID)
	return user, nil
}

// CurrentUser returns the user loaded by Authenticate.
func CurrentUser(r *http.Request) (model.User, bool) {
	user, ok := r.Context().Value(ContextKeyUser).(model.User)
	return user, ok
}

// RequireApproved allows only active, approved users.
func RequireApproved(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(r)
		if !ok {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
			return
		}
		if !user.CanEdit() {
			msg := "Account is inactive"
			if user.IsPending() {
				msg = "Account is awaiting approval"
			}
			WriteAPIError(w, http.StatusForbidden, "forbidden", msg, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin allows only active admins.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(r)
		if !ok {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
			return
		}
		if !user.CanAdminister() {
			WriteAPIError(w, http.StatusForbidden, "forbidden", "Administrator access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
