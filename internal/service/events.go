// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the business rules of the site backend: the
// user directory and its approval workflow, notification routing, the
// catalog publication lifecycle, inquiry capture and the audit event log.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/olegiv/vitrine/internal/model"
	"github.com/olegiv/vitrine/internal/store"
	"github.com/olegiv/vitrine/internal/util"
)

// DefaultEventRetention is how long audit events are kept.
const DefaultEventRetention = 30 * 24 * time.Hour

// EventService provides event logging functionality.
type EventService struct {
	queries *store.Queries
	logger  *slog.Logger
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB, logger *slog.Logger) *EventService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventService{
		queries: store.New(db),
		logger:  logger,
	}
}

// LogEvent creates a new event log entry.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	metadataJSON := "{}"
	if metadata != nil {
		jsonBytes, err := json.Marshal(metadata)
		if err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    util.NullInt64FromPtr(userID),
		Metadata:  metadataJSON,
		IpAddress: ipAddress,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("failed to log event", "error", err, "category", category)
		return err
	}

	return nil
}

// LogUserEvent logs a user-directory event.
func (s *EventService) LogUserEvent(ctx context.Context, level, message string, userID *int64, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryUser, message, userID, "", metadata)
}

// LogContentEvent logs a catalog event.
func (s *EventService) LogContentEvent(ctx context.Context, level, message string, userID *int64, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryContent, message, userID, "", metadata)
}

// LogInquiryEvent logs a lead or contact event.
func (s *EventService) LogInquiryEvent(ctx context.Context, level, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryInquiry, message, userID, ipAddress, metadata)
}

// LogSystemEvent logs a system-related event.
func (s *EventService) LogSystemEvent(ctx context.Context, level, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategorySystem, message, nil, "", metadata)
}

// ListEvents returns the newest events, optionally filtered by category.
func (s *EventService) ListEvents(ctx context.Context, category string, limit int) ([]model.Event, error) {
	rows, err := s.queries.ListEvents(ctx, category, int64(clampLimit(limit)))
	if err != nil {
		return nil, err
	}
	events := make([]model.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, model.Event{
			ID:        r.ID,
			Level:     r.Level,
			Category:  r.Category,
			Message:   r.Message,
			UserID:    util.Int64PtrFromNull(r.UserID),
			Metadata:  r.Metadata,
			IPAddress: r.IpAddress,
			CreatedAt: r.CreatedAt,
		})
	}
	return events, nil
}

// DeleteOldEvents removes events older than the specified duration and
// reports how many were removed.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	return s.queries.DeleteOldEvents(ctx, cutoff)
}
