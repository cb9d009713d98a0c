// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/olegiv/vitrine/internal/testutil"
)

func TestNew_DevMode(t *testing.T) {
	sm := New(testutil.TestDB(t), true)

	if sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = false in dev mode")
	}
	if sm.Cookie.Name != "vitrine_session" {
		t.Errorf("Cookie.Name = %q, want vitrine_session", sm.Cookie.Name)
	}
}

func TestNew_ProductionMode(t *testing.T) {
	sm := New(testutil.TestDB(t), false)

	if !sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = true in production mode")
	}
	if sm.Cookie.Name != "__Host-vitrine_session" {
		t.Errorf("Cookie.Name = %q, want __Host-vitrine_session", sm.Cookie.Name)
	}
	if sm.Cookie.Path != "/" {
		t.Errorf("Cookie.Path = %q, want /", sm.Cookie.Path)
	}
}

func TestNew_SessionSettings(t *testing.T) {
	sm := New(testutil.TestDB(t), true)

	if sm.Lifetime != Lifetime {
		t.Errorf("Lifetime = %v, want %v", sm.Lifetime, Lifetime)
	}
	if sm.IdleTimeout != IdleTimeout {
		t.Errorf("IdleTimeout = %v, want %v", sm.IdleTimeout, IdleTimeout)
	}
	if !sm.Cookie.HttpOnly {
		t.Error("expected Cookie.HttpOnly = true")
	}
	if sm.Cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("Cookie.SameSite = %v, want Lax", sm.Cookie.SameSite)
	}
}

func TestSession_RoundTripThroughStore(t *testing.T) {
	sm := New(testutil.TestDB(t), true)

	put := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sm.Put(r.Context(), KeyUserID, int64(7))
		sm.Put(r.Context(), KeySubject, "sub-7")
	}))
	rec := httptest.NewRecorder()
	put.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}

	var gotID int64
	var gotSubject string
	get := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = sm.GetInt64(r.Context(), KeyUserID)
		gotSubject = sm.GetString(r.Context(), KeySubject)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	get.ServeHTTP(httptest.NewRecorder(), req)

	if gotID != 7 || gotSubject != "sub-7" {
		t.Errorf("session = (%d, %q), want (7, sub-7)", gotID, gotSubject)
	}
}
