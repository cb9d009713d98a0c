// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that mirrors warnings and errors
// into the database-backed audit event log.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/vitrine/internal/model"
	"github.com/olegiv/vitrine/internal/store"
	"github.com/olegiv/vitrine/internal/util"
)

// Attribute keys with special meaning to the handler.
const (
	CategoryKey = "category"
	UserIDKey   = "user_id"
	IPKey       = "ip"
)

// EventLogHandler wraps another handler and also writes records at or above
// its level to the events table.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr
	group   string
}

// NewEventLogHandler forwards WARN and above to the event log.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel forwards records at level and above to the event log.
func NewEventLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level) || level >= h.level
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.inner.Enabled(ctx, r.Level) {
		if err := h.inner.Handle(ctx, r); err != nil {
			return err
		}
	}
	if r.Level >= h.level {
		h.writeToEventLog(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.clone()
	clone.inner = h.inner.WithAttrs(attrs)
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, h.qualify(a))
	}
	return clone
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.clone()
	clone.inner = h.inner.WithGroup(name)
	if clone.group == "" {
		clone.group = name
	} else {
		clone.group += "." + name
	}
	return clone
}

func (h *EventLogHandler) clone() *EventLogHandler {
	return &EventLogHandler{
		inner:   h.inner,
		queries: h.queries,
		level:   h.level,
		attrs:   append([]slog.Attr(nil), h.attrs...),
		group:   h.group,
	}
}

func (h *EventLogHandler) qualify(a slog.Attr) slog.Attr {
	if h.group == "" {
		return a
	}
	return slog.Attr{Key: h.group + "." + a.Key, Value: a.Value}
}

// writeToEventLog stores the record. It runs on a background context so a
// cancelled request still gets its failure recorded, and it never logs.
func (h *EventLogHandler) writeToEventLog(r slog.Record) {
	var (
		category string
		userID   sql.NullInt64
		ip       string
		metadata = map[string]string{}
	)

	collect := func(a slog.Attr) {
		a.Value = a.Value.Resolve()
		switch a.Key {
		case CategoryKey:
			category = a.Value.String()
			return
		case UserIDKey:
			if a.Value.Kind() == slog.KindInt64 {
				userID = util.NullInt64FromValue(a.Value.Int64())
			}
		case IPKey:
			ip = a.Value.String()
		}
		metadata[a.Key] = a.Value.String()
	}

	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		collect(h.qualify(a))
		return true
	})

	if category == "" {
		category = inferCategory(r.Message)
	}

	payload := "{}"
	if len(metadata) > 0 {
		if data, err := json.Marshal(metadata); err == nil {
			payload = string(data)
		}
	}

	created := r.Time
	if created.IsZero() {
		created = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = h.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     eventLevel(r.Level),
		Category:  category,
		Message:   r.Message,
		UserID:    userID,
		Metadata:  payload,
		IpAddress: ip,
		CreatedAt: created.UTC(),
	})
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// inferCategory guesses an event category from the log message.
func inferCategory(message string) string {
	msg := strings.ToLower(message)
	switch {
	case containsAny(msg, "auth", "identity", "session", "csrf"):
		return model.EventCategoryAuth
	case containsAny(msg, "notification"):
		return model.EventCategoryNotification
	case containsAny(msg, "lead", "contact", "inquiry"):
		return model.EventCategoryInquiry
	case containsAny(msg, "product", "gallery", "catalog", "content", "publish"):
		return model.EventCategoryContent
	case containsAny(msg, "user", "admin", "approv"):
		return model.EventCategoryUser
	case containsAny(msg, "config", "setting"):
		return model.EventCategoryConfig
	case containsAny(msg, "cache", "redis"):
		return model.EventCategoryCache
	default:
		return model.EventCategorySystem
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
