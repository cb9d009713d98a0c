// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

// Viewer queries bind ?1 = viewer user id, ?2 = viewer id as recipient value,
// ?3 = viewer's current role. Role broadcasts are never visible to 'pending'.
const viewerVisible = `((n.recipient_kind = 'user' AND n.recipient_value = ?2)
    OR (n.recipient_kind = 'role' AND n.recipient_value = ?3 AND ?3 <> 'pending'))`

const viewerRead = `CASE WHEN n.recipient_kind = 'user' THEN n.is_read
    ELSE EXISTS (SELECT 1 FROM notification_reads r WHERE r.notification_id = n.id AND r.user_id = ?1) END`

const notificationViewerColumns = `n.id, n.type, n.title, n.message, n.link, n.recipient_kind, n.recipient_value, ` +
	viewerRead + ` AS is_read, n.created_at`

func scanNotification(row interface{ Scan(...any) error }) (Notification, error) {
	var i Notification
	err := row.Scan(
		&i.ID,
		&i.Type,
		&i.Title,
		&i.Message,
		&i.Link,
		&i.RecipientKind,
		&i.RecipientValue,
		&i.IsRead,
		&i.CreatedAt,
	)
	return i, err
}

// ViewerParams identifies who is looking at notifications.
type ViewerParams struct {
	UserID         int64
	RecipientValue string
	Role           string
}

const createNotification = `-- name: CreateNotification :one
INSERT INTO notifications (type, title, message, link, recipient_kind, recipient_value, is_read, created_at)
VALUES (?, ?, ?, ?, ?, ?, 0, ?)
RETURNING id`

type CreateNotificationParams struct {
	Type           string
	Title          string
	Message        string
	Link           sql.NullString
	RecipientKind  string
	RecipientValue string
	CreatedAt      time.Time
}

func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createNotification,
		arg.Type,
		arg.Title,
		arg.Message,
		arg.Link,
		arg.RecipientKind,
		arg.RecipientValue,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getNotification = `-- name: GetNotification :one
SELECT id, type, title, message, link, recipient_kind, recipient_value, is_read, created_at
FROM notifications WHERE id = ?`

// GetNotification returns the raw row; IsRead is the shared row flag.
func (q *Queries) GetNotification(ctx context.Context, id int64) (Notification, error) {
	return scanNotification(q.db.QueryRowContext(ctx, getNotification, id))
}

const getNotificationForViewer = `-- name: GetNotificationForViewer :one
SELECT ` + notificationViewerColumns + `
FROM notifications n
WHERE n.id = ?4 AND ` + viewerVisible

// GetNotificationForViewer returns sql.ErrNoRows when the notification does not
// exist or is not addressed to the viewer.
func (q *Queries) GetNotificationForViewer(ctx context.Context, viewer ViewerParams, id int64) (Notification, error) {
	row := q.db.QueryRowContext(ctx, getNotificationForViewer, viewer.UserID, viewer.RecipientValue, viewer.Role, id)
	return scanNotification(row)
}

const listNotificationsForViewer = `-- name: ListNotificationsForViewer :many
SELECT ` + notificationViewerColumns + `
FROM notifications n
WHERE ` + viewerVisible + `
ORDER BY n.created_at DESC, n.id DESC
LIMIT ?4`

func (q *Queries) ListNotificationsForViewer(ctx context.Context, viewer ViewerParams, limit int64) ([]Notification, error) {
	rows, err := q.db.QueryContext(ctx, listNotificationsForViewer, viewer.UserID, viewer.RecipientValue, viewer.Role, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Notification{}
	for rows.Next() {
		i, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countUnreadForViewer = `-- name: CountUnreadForViewer :one
SELECT COUNT(*) FROM notifications n
WHERE ` + viewerVisible + ` AND NOT (` + viewerRead + `)`

func (q *Queries) CountUnreadForViewer(ctx context.Context, viewer ViewerParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countUnreadForViewer, viewer.UserID, viewer.RecipientValue, viewer.Role).Scan(&count)
	return count, err
}

const markUserNotificationRead = `-- name: MarkUserNotificationRead :execrows
UPDATE notifications SET is_read = 1 WHERE id = ? AND recipient_kind = 'user'`

func (q *Queries) MarkUserNotificationRead(ctx context.Context, id int64) (int64, error) {
	return q.execRows(ctx, markUserNotificationRead, id)
}

const createNotificationRead = `-- name: CreateNotificationRead :exec
INSERT INTO notification_reads (notification_id, user_id, read_at)
VALUES (?, ?, ?)
ON CONFLICT (notification_id, user_id) DO NOTHING`

type CreateNotificationReadParams struct {
	NotificationID int64
	UserID         int64
	ReadAt         time.Time
}

func (q *Queries) CreateNotificationRead(ctx context.Context, arg CreateNotificationReadParams) error {
	_, err := q.db.ExecContext(ctx, createNotificationRead, arg.NotificationID, arg.UserID, arg.ReadAt)
	return err
}

const markAllUserNotificationsRead = `-- name: MarkAllUserNotificationsRead :execrows
UPDATE notifications SET is_read = 1
WHERE recipient_kind = 'user' AND recipient_value = ? AND is_read = 0`

func (q *Queries) MarkAllUserNotificationsRead(ctx context.Context, recipientValue string) (int64, error) {
	return q.execRows(ctx, markAllUserNotificationsRead, recipientValue)
}

const markAllRoleNotificationsRead = `-- name: MarkAllRoleNotificationsRead :execrows
INSERT INTO notification_reads (notification_id, user_id, read_at)
SELECT n.id, ?1, ?2 FROM notifications n
WHERE n.recipient_kind = 'role' AND n.recipient_value = ?3 AND ?3 <> 'pending'
ON CONFLICT (notification_id, user_id) DO NOTHING`

type MarkAllRoleNotificationsReadParams struct {
	UserID int64
	ReadAt time.Time
	Role   string
}

func (q *Queries) MarkAllRoleNotificationsRead(ctx context.Context, arg MarkAllRoleNotificationsReadParams) (int64, error) {
	return q.execRows(ctx, markAllRoleNotificationsRead, arg.UserID, arg.ReadAt, arg.Role)
}

const deleteNotification = `-- name: DeleteNotification :execrows
DELETE FROM notifications WHERE id = ?`

func (q *Queries) DeleteNotification(ctx context.Context, id int64) (int64, error) {
	return q.execRows(ctx, deleteNotification, id)
}

const deleteNotificationsBefore = `-- name: DeleteNotificationsBefore :execrows
DELETE FROM notifications WHERE created_at < ?`

func (q *Queries) DeleteNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return q.execRows(ctx, deleteNotificationsBefore, cutoff)
}
