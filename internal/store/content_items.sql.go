// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const contentItemColumns = `id, uuid, kind, name, slug, description, category, image_url, attributes, status,
    created_by, published_by, published_at, created_at, updated_at`

func scanContentItem(row interface{ Scan(...any) error }) (ContentItem, error) {
	var i ContentItem
	err := row.Scan(
		&i.ID,
		&i.Uuid,
		&i.Kind,
		&i.Name,
		&i.Slug,
		&i.Description,
		&i.Category,
		&i.ImageUrl,
		&i.Attributes,
		&i.Status,
		&i.CreatedBy,
		&i.PublishedBy,
		&i.PublishedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) listContentItems(ctx context.Context, query string, args ...any) ([]ContentItem, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ContentItem{}
	for rows.Next() {
		i, err := scanContentItem(rows)
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

const createContentItem = `-- name: CreateContentItem :one
INSERT INTO content_items (uuid, kind, name, slug, description, category, image_url, attributes, status,
    created_by, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'draft', ?, ?, ?)
RETURNING id`

type CreateContentItemParams struct {
	Uuid        string
	Kind        string
	Name        string
	Slug        string
	Description string
	Category    string
	ImageUrl    string
	Attributes  string
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateContentItem always inserts in draft status.
func (q *Queries) CreateContentItem(ctx context.Context, arg CreateContentItemParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createContentItem,
		arg.Uuid,
		arg.Kind,
		arg.Name,
		arg.Slug,
		arg.Description,
		arg.Category,
		arg.ImageUrl,
		arg.Attributes,
		arg.CreatedBy,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getContentItem = `-- name: GetContentItem :one
SELECT ` + contentItemColumns + ` FROM content_items WHERE kind = ? AND id = ?`

func (q *Queries) GetContentItem(ctx context.Context, kind string, id int64) (ContentItem, error) {
	return scanContentItem(q.db.QueryRowContext(ctx, getContentItem, kind, id))
}

const getContentItemBySlug = `-- name: GetContentItemBySlug :one
SELECT ` + contentItemColumns + ` FROM content_items WHERE kind = ? AND slug = ?`

func (q *Queries) GetContentItemBySlug(ctx context.Context, kind, slug string) (ContentItem, error) {
	return scanContentItem(q.db.QueryRowContext(ctx, getContentItemBySlug, kind, slug))
}

const getContentItemByUUID = `-- name: GetContentItemByUUID :one
SELECT ` + contentItemColumns + ` FROM content_items WHERE kind = ? AND uuid = ?`

func (q *Queries) GetContentItemByUUID(ctx context.Context, kind, uuid string) (ContentItem, error) {
	return scanContentItem(q.db.QueryRowContext(ctx, getContentItemByUUID, kind, uuid))
}

const contentSlugExists = `-- name: ContentSlugExists :one
SELECT EXISTS (SELECT 1 FROM content_items WHERE kind = ? AND slug = ? AND id <> ?)`

// ContentSlugExists reports whether slug is taken by another item of the same kind.
func (q *Queries) ContentSlugExists(ctx context.Context, kind, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, contentSlugExists, kind, slug, excludeID).Scan(&exists)
	return exists, err
}

const updateDraftContentItem = `-- name: UpdateDraftContentItem :execrows
UPDATE content_items
SET name = ?, slug = ?, description = ?, category = ?, image_url = ?, attributes = ?, updated_at = ?
WHERE kind = ? AND id = ? AND status = 'draft'`

type UpdateDraftContentItemParams struct {
	Name        string
	Slug        string
	Description string
	Category    string
	ImageUrl    string
	Attributes  string
	UpdatedAt   time.Time
	Kind        string
	ID          int64
}

// UpdateDraftContentItem affects no rows unless the item is still a draft.
func (q *Queries) UpdateDraftContentItem(ctx context.Context, arg UpdateDraftContentItemParams) (int64, error) {
	return q.execRows(ctx, updateDraftContentItem,
		arg.Name,
		arg.Slug,
		arg.Description,
		arg.Category,
		arg.ImageUrl,
		arg.Attributes,
		arg.UpdatedAt,
		arg.Kind,
		arg.ID,
	)
}

const publishContentItem = `-- name: PublishContentItem :execrows
UPDATE content_items SET status = 'published', published_by = ?, published_at = ?, updated_at = ?
WHERE kind = ? AND id = ? AND status = 'draft'`

type PublishContentItemParams struct {
	PublishedBy sql.NullInt64
	PublishedAt sql.NullTime
	UpdatedAt   time.Time
	Kind        string
	ID          int64
}

func (q *Queries) PublishContentItem(ctx context.Context, arg PublishContentItemParams) (int64, error) {
	return q.execRows(ctx, publishContentItem, arg.PublishedBy, arg.PublishedAt, arg.UpdatedAt, arg.Kind, arg.ID)
}

const unpublishContentItem = `-- name: UnpublishContentItem :execrows
UPDATE content_items SET status = 'draft', updated_at = ?
WHERE kind = ? AND id = ? AND status IN ('published', 'archived')`

// UnpublishContentItem keeps published_by and published_at.
func (q *Queries) UnpublishContentItem(ctx context.Context, updatedAt time.Time, kind string, id int64) (int64, error) {
	return q.execRows(ctx, unpublishContentItem, updatedAt, kind, id)
}

const archiveContentItem = `-- name: ArchiveContentItem :execrows
UPDATE content_items SET status = 'archived', updated_at = ?
WHERE kind = ? AND id = ? AND status <> 'archived'`

func (q *Queries) ArchiveContentItem(ctx context.Context, updatedAt time.Time, kind string, id int64) (int64, error) {
	return q.execRows(ctx, archiveContentItem, updatedAt, kind, id)
}

const deleteContentItem = `-- name: DeleteContentItem :execrows
DELETE FROM content_items WHERE kind = ? AND id = ?`

func (q *Queries) DeleteContentItem(ctx context.Context, kind string, id int64) (int64, error) {
	return q.execRows(ctx, deleteContentItem, kind, id)
}

const listContentItems = `-- name: ListContentItems :many
SELECT ` + contentItemColumns + ` FROM content_items WHERE kind = ?
ORDER BY created_at DESC, id DESC`

func (q *Queries) ListContentItems(ctx context.Context, kind string) ([]ContentItem, error) {
	return q.listContentItems(ctx, listContentItems, kind)
}

const listContentItemsByStatus = `-- name: ListContentItemsByStatus :many
SELECT ` + contentItemColumns + ` FROM content_items WHERE kind = ? AND status = ?
ORDER BY created_at DESC, id DESC`

func (q *Queries) ListContentItemsByStatus(ctx context.Context, kind, status string) ([]ContentItem, error) {
	return q.listContentItems(ctx, listContentItemsByStatus, kind, status)
}

const listContentItemsByCategory = `-- name: ListContentItemsByCategory :many
SELECT ` + contentItemColumns + ` FROM content_items WHERE kind = ? AND category = ?
ORDER BY created_at DESC, id DESC`

func (q *Queries) ListContentItemsByCategory(ctx context.Context, kind, category string) ([]ContentItem, error) {
	return q.listContentItems(ctx, listContentItemsByCategory, kind, category)
}

const listPublishedContentItems = `-- name: ListPublishedContentItems :many
SELECT ` + contentItemColumns + ` FROM content_items
WHERE kind = ?1 AND status = 'published' AND (?2 = '' OR category = ?2)
ORDER BY published_at DESC, id DESC`

// ListPublishedContentItems filters by category unless category is empty.
func (q *Queries) ListPublishedContentItems(ctx context.Context, kind, category string) ([]ContentItem, error) {
	return q.listContentItems(ctx, listPublishedContentItems, kind, category)
}
