// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/olegiv/vitrine/internal/model"
	"github.com/olegiv/vitrine/internal/store"
	"github.com/olegiv/vitrine/internal/testutil"
)

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func listEvents(t *testing.T, q *store.Queries) []store.Event {
	t.Helper()
	events, err := q.ListEvents(context.Background(), "", 50)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	return events
}

func TestEventLogHandler_ErrorLevel(t *testing.T) {
	db := testutil.TestDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db))

	logger.Error("failed to create notification", "type", "new_lead", "attempt", 2)

	events := listEvents(t, store.New(db))
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	e := events[0]
	if e.Level != model.EventLevelError {
		t.Errorf("level = %q, want %q", e.Level, model.EventLevelError)
	}
	if e.Category != model.EventCategoryNotification {
		t.Errorf("category = %q, want %q", e.Category, model.EventCategoryNotification)
	}
	if e.Message != "failed to create notification" {
		t.Errorf("message = %q", e.Message)
	}

	var meta map[string]string
	if err := json.Unmarshal([]byte(e.Metadata), &meta); err != nil {
		t.Fatalf("metadata is not JSON: %v (%s)", err, e.Metadata)
	}
	if meta["type"] != "new_lead" || meta["attempt"] != "2" {
		t.Errorf("metadata = %v", meta)
	}
}

func TestEventLogHandler_BelowThresholdIsNotStored(t *testing.T) {
	db := testutil.TestDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db))

	logger.Info("user approved")
	logger.Debug("cache hit")

	if events := listEvents(t, store.New(db)); len(events) != 0 {
		t.Errorf("got %d events, want 0", len(events))
	}
}

func TestEventLogHandler_CustomLevel(t *testing.T) {
	db := testutil.TestDB(t)
	logger := slog.New(NewEventLogHandlerWithLevel(discardHandler{}, db, slog.LevelInfo))

	logger.Info("mail relay started", "workers", 2)

	events := listEvents(t, store.New(db))
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Level != model.EventLevelInfo {
		t.Errorf("level = %q", events[0].Level)
	}
}

func TestEventLogHandler_SpecialAttributes(t *testing.T) {
	db := testutil.TestDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db)).
		With(CategoryKey, model.EventCategoryAuth)

	logger.Warn("identity header mismatch", UserIDKey, int64(42), IPKey, "203.0.113.5")

	events := listEvents(t, store.New(db))
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	e := events[0]
	if e.Category != model.EventCategoryAuth {
		t.Errorf("category = %q, want auth", e.Category)
	}
	if !e.UserID.Valid || e.UserID.Int64 != 42 {
		t.Errorf("user_id = %v, want 42", e.UserID)
	}
	if e.IpAddress != "203.0.113.5" {
		t.Errorf("ip = %q", e.IpAddress)
	}
	if strings.Contains(e.Metadata, CategoryKey) {
		t.Errorf("category should not be repeated in metadata: %s", e.Metadata)
	}
}

func TestEventLogHandler_Groups(t *testing.T) {
	db := testutil.TestDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db)).
		WithGroup("relay").
		With("host", "mail.example.com")

	logger.Warn("mail delivery failed", "status", 502)

	events := listEvents(t, store.New(db))
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	var meta map[string]string
	if err := json.Unmarshal([]byte(events[0].Metadata), &meta); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta["relay.host"] != "mail.example.com" || meta["relay.status"] != "502" {
		t.Errorf("metadata = %v", meta)
	}
}

func TestEventLogHandler_ForwardsToInner(t *testing.T) {
	db := testutil.TestDB(t)
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(NewEventLogHandler(inner, db))

	logger.Info("server started", "addr", ":8080")
	logger.Warn("cache fallback to memory")

	out := buf.String()
	if !strings.Contains(out, "server started") || !strings.Contains(out, "cache fallback to memory") {
		t.Errorf("inner handler output missing records: %s", out)
	}
	events := listEvents(t, store.New(db))
	if len(events) != 1 || events[0].Category != model.EventCategoryCache {
		t.Errorf("events = %+v", events)
	}
}

func TestEventLogHandler_EnabledWhenInnerIsQuiet(t *testing.T) {
	db := testutil.TestDB(t)
	inner := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError})
	h := NewEventLogHandler(inner, db)

	if !h.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warnings must reach the event log even if the inner handler drops them")
	}
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled")
	}
}

func TestInferCategory(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"session expired", model.EventCategoryAuth},
		{"failed to create admin notification", model.EventCategoryNotification},
		{"lead assignment failed", model.EventCategoryInquiry},
		{"failed to invalidate catalog cache", model.EventCategoryContent},
		{"failed to list admins for email", model.EventCategoryUser},
		{"invalid config value", model.EventCategoryConfig},
		{"redis unavailable", model.EventCategoryCache},
		{"something odd", model.EventCategorySystem},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := inferCategory(tt.msg); got != tt.want {
				t.Errorf("inferCategory(%q) = %q, want %q", tt.msg, got, tt.want)
			}
		})
	}
}
