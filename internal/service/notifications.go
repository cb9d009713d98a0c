// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/vitrine/internal/model"
	"github.com/olegiv/vitrine/internal/store"
	"github.com/olegiv/vitrine/internal/util"
)

// Notification list limits.
const (
	DefaultNotificationLimit = 20
	MaxNotificationLimit     = 100
	// DefaultNotificationRetention is the age after which the purge sweep
	// removes notifications.
	DefaultNotificationRetention = 30 * 24 * time.Hour
)

// Viewer is the user reading notifications, with the role they hold right now.
// Role-addressed notifications are matched against Role on every query.
type Viewer struct {
	UserID int64
	Role   model.Role
}

// ViewerOf builds a Viewer from a freshly loaded user record.
func ViewerOf(u model.User) Viewer {
	return Viewer{UserID: u.ID, Role: u.Role}
}

func (v Viewer) params() store.ViewerParams {
	return store.ViewerParams{
		UserID:         v.UserID,
		RecipientValue: strconv.FormatInt(v.UserID, 10),
		Role:           string(v.Role),
	}
}

// NotificationInput is the content of a new notification.
type NotificationInput struct {
	Type    model.NotificationType
	Title   string
	Message string
	Link    string
}

func (in NotificationInput) validate() error {
	if !in.Type.Valid() {
		return invalid("type", "unknown notification type")
	}
	if strings.TrimSpace(in.Title) == "" {
		return invalid("title", "is required")
	}
	return nil
}

// NotificationService routes notifications to single users or role cohorts.
type NotificationService struct {
	db      *sql.DB
	queries *store.Queries
	now     func() time.Time
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(db *sql.DB) *NotificationService {
	return &NotificationService{
		db:      db,
		queries: store.New(db),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateForUser addresses a notification to one user.
func (s *NotificationService) CreateForUser(ctx context.Context, in NotificationInput, userID int64) (model.Notification, error) {
	if err := in.validate(); err != nil {
		return model.Notification{}, err
	}
	if _, err := s.queries.GetUserByID(ctx, userID); err != nil {
		return model.Notification{}, notFound(err, "recipient user %d", userID)
	}
	return s.create(ctx, in, model.UserRecipient(userID))
}

// CreateForRole addresses a notification to whoever holds role when it is read.
// No member list is captured.
func (s *NotificationService) CreateForRole(ctx context.Context, in NotificationInput, role model.Role) (model.Notification, error) {
	if err := in.validate(); err != nil {
		return model.Notification{}, err
	}
	if !role.Assignable() {
		return model.Notification{}, invalid("role", "broadcasts are limited to approved roles")
	}
	return s.create(ctx, in, model.RoleRecipient(role))
}

func (s *NotificationService) create(ctx context.Context, in NotificationInput, to model.Recipient) (model.Notification, error) {
	id, err := s.queries.CreateNotification(ctx, store.CreateNotificationParams{
		Type:           string(in.Type),
		Title:          strings.TrimSpace(in.Title),
		Message:        in.Message,
		Link:           util.NullStringFromValue(in.Link),
		RecipientKind:  string(to.Kind),
		RecipientValue: to.Value,
		CreatedAt:      s.now(),
	})
	if err != nil {
		return model.Notification{}, fmt.Errorf("creating notification: %w", err)
	}
	row, err := s.queries.GetNotification(ctx, id)
	if err != nil {
		return model.Notification{}, notFound(err, "notification %d", id)
	}
	return notificationFromRow(row), nil
}

// GetForSubject returns the notifications addressed to the viewer directly or
// to the viewer's current role, newest first. Pending viewers never see role
// broadcasts. limit is clamped to [1, MaxNotificationLimit]; zero means default.
func (s *NotificationService) GetForSubject(ctx context.Context, v Viewer, limit int) ([]model.Notification, error) {
	rows, err := s.queries.ListNotificationsForViewer(ctx, v.params(), int64(clampLimit(limit)))
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	items := make([]model.Notification, 0, len(rows))
	for _, r := range rows {
		items = append(items, notificationFromRow(r))
	}
	return items, nil
}

// UnreadCount counts unread notifications visible to the viewer.
func (s *NotificationService) UnreadCount(ctx context.Context, v Viewer) (int64, error) {
	count, err := s.queries.CountUnreadForViewer(ctx, v.params())
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one visible notification read. Direct notifications flip
// their own flag; role broadcasts record a receipt for this viewer only.
func (s *NotificationService) MarkRead(ctx context.Context, v Viewer, id int64) error {
	n, err := s.queries.GetNotificationForViewer(ctx, v.params(), id)
	if err != nil {
		return notFound(err, "notification %d", id)
	}
	if n.IsRead {
		return nil
	}

	if model.RecipientKind(n.RecipientKind) == model.RecipientUser {
		_, err = s.queries.MarkUserNotificationRead(ctx, id)
	} else {
		err = s.queries.CreateNotificationRead(ctx, store.CreateNotificationReadParams{
			NotificationID: id,
			UserID:         v.UserID,
			ReadAt:         s.now(),
		})
	}
	if err != nil {
		return fmt.Errorf("marking notification %d read: %w", id, err)
	}
	return nil
}

// MarkAllRead marks everything currently visible to the viewer as read. The
// visible set is recomputed from the viewer's role at call time.
func (s *NotificationService) MarkAllRead(ctx context.Context, v Viewer) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := s.queries.WithTx(tx)
	p := v.params()

	marked, err := q.MarkAllUserNotificationsRead(ctx, p.RecipientValue)
	if err != nil {
		return 0, fmt.Errorf("marking direct notifications read: %w", err)
	}
	if v.Role != model.RolePending {
		n, err := q.MarkAllRoleNotificationsRead(ctx, store.MarkAllRoleNotificationsReadParams{
			UserID: v.UserID,
			ReadAt: s.now(),
			Role:   p.Role,
		})
		if err != nil {
			return 0, fmt.Errorf("marking role notifications read: %w", err)
		}
		marked += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return marked, nil
}

// Remove deletes a notification visible to the viewer. Removing a role
// broadcast removes it for the whole cohort.
func (s *NotificationService) Remove(ctx context.Context, v Viewer, id int64) error {
	if _, err := s.queries.GetNotificationForViewer(ctx, v.params(), id); err != nil {
		return notFound(err, "notification %d", id)
	}
	rows, err := s.queries.DeleteNotification(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting notification %d: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("notification %d: %w", id, ErrNotFound)
	}
	return nil
}

// PurgeOlderThan hard-deletes notifications older than age. Safe to re-run.
func (s *NotificationService) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	if age <= 0 {
		return 0, invalid("age", "must be positive")
	}
	deleted, err := s.queries.DeleteNotificationsBefore(ctx, s.now().Add(-age))
	if err != nil {
		return 0, fmt.Errorf("purging notifications: %w", err)
	}
	return deleted, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultNotificationLimit
	case limit > MaxNotificationLimit:
		return MaxNotificationLimit
	}
	return limit
}

func notificationFromRow(n store.Notification) model.Notification {
	return model.Notification{
		ID:      n.ID,
		Type:    model.NotificationType(n.Type),
		Title:   n.Title,
		Message: n.Message,
		Link:    n.Link.String,
		Recipient: model.Recipient{
			Kind:  model.RecipientKind(n.RecipientKind),
			Value: n.RecipientValue,
		},
		Read:      n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}
