// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const userColumns = `id, subject_id, email, name, avatar_url, role, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.SubjectID,
		&i.Email,
		&i.Name,
		&i.AvatarUrl,
		&i.Role,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) listUsers(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []User{}
	for rows.Next() {
		i, err := scanUser(rows)
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

const insertUserBootstrapAware = `-- name: InsertUserBootstrapAware :one
INSERT INTO users (subject_id, email, name, avatar_url, role, is_active, created_at, updated_at)
SELECT ?1, ?2, ?3, ?4,
    CASE WHEN EXISTS (SELECT 1 FROM users) THEN 'pending' ELSE 'admin' END,
    NOT EXISTS (SELECT 1 FROM users),
    ?5, ?5
WHERE true
ON CONFLICT (subject_id) DO NOTHING
RETURNING id`

// InsertUserBootstrapAwareParams holds the profile of a first-time registrant.
type InsertUserBootstrapAwareParams struct {
	SubjectID string
	Email     string
	Name      string
	AvatarUrl sql.NullString
	CreatedAt time.Time
}

// InsertUserBootstrapAware inserts a new user in one statement: the row becomes an
// active admin when the table is empty and an inactive pending user otherwise.
// Returns sql.ErrNoRows when a user with the same subject already exists.
func (q *Queries) InsertUserBootstrapAware(ctx context.Context, arg InsertUserBootstrapAwareParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, insertUserBootstrapAware,
		arg.SubjectID,
		arg.Email,
		arg.Name,
		arg.AvatarUrl,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const updateUserProfile = `-- name: UpdateUserProfile :execrows
UPDATE users SET email = ?, name = ?, avatar_url = ?, updated_at = ?
WHERE subject_id = ?`

// UpdateUserProfileParams holds refreshed identity claims.
type UpdateUserProfileParams struct {
	Email     string
	Name      string
	AvatarUrl sql.NullString
	UpdatedAt time.Time
	SubjectID string
}

// UpdateUserProfile refreshes profile fields only; role and activation are untouched.
func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (int64, error) {
	return q.execRows(ctx, updateUserProfile,
		arg.Email,
		arg.Name,
		arg.AvatarUrl,
		arg.UpdatedAt,
		arg.SubjectID,
	)
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserBySubject = `-- name: GetUserBySubject :one
SELECT ` + userColumns + ` FROM users WHERE subject_id = ?`

func (q *Queries) GetUserBySubject(ctx context.Context, subjectID string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserBySubject, subjectID))
}

const approvePendingUser = `-- name: ApprovePendingUser :execrows
UPDATE users SET role = ?, is_active = 1, updated_at = ?
WHERE id = ? AND role = 'pending'`

type ApprovePendingUserParams struct {
	Role      string
	UpdatedAt time.Time
	ID        int64
}

// ApprovePendingUser affects no rows if the user is missing or no longer pending.
func (q *Queries) ApprovePendingUser(ctx context.Context, arg ApprovePendingUserParams) (int64, error) {
	return q.execRows(ctx, approvePendingUser, arg.Role, arg.UpdatedAt, arg.ID)
}

const updateApprovedUserRole = `-- name: UpdateApprovedUserRole :execrows
UPDATE users SET role = ?, updated_at = ?
WHERE id = ? AND role <> 'pending' AND is_active = 1`

type UpdateApprovedUserRoleParams struct {
	Role      string
	UpdatedAt time.Time
	ID        int64
}

// UpdateApprovedUserRole affects no rows unless the user is approved and active.
func (q *Queries) UpdateApprovedUserRole(ctx context.Context, arg UpdateApprovedUserRoleParams) (int64, error) {
	return q.execRows(ctx, updateApprovedUserRole, arg.Role, arg.UpdatedAt, arg.ID)
}

const toggleApprovedUserActive = `-- name: ToggleApprovedUserActive :execrows
UPDATE users SET is_active = NOT is_active, updated_at = ?
WHERE id = ? AND role <> 'pending'`

type ToggleApprovedUserActiveParams struct {
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) ToggleApprovedUserActive(ctx context.Context, arg ToggleApprovedUserActiveParams) (int64, error) {
	return q.execRows(ctx, toggleApprovedUserActive, arg.UpdatedAt, arg.ID)
}

const deletePendingUser = `-- name: DeletePendingUser :execrows
DELETE FROM users WHERE id = ? AND role = 'pending'`

func (q *Queries) DeletePendingUser(ctx context.Context, id int64) (int64, error) {
	return q.execRows(ctx, deletePendingUser, id)
}

const countUsers = `-- name: CountUsers :one
SELECT COUNT(*) FROM users`

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&count)
	return count, err
}

const listUsers = `-- name: ListUsers :many
SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	return q.listUsers(ctx, listUsers)
}

const listUsersByRole = `-- name: ListUsersByRole :many
SELECT ` + userColumns + ` FROM users WHERE role = ? ORDER BY created_at DESC, id DESC`

func (q *Queries) ListUsersByRole(ctx context.Context, role string) ([]User, error) {
	return q.listUsers(ctx, listUsersByRole, role)
}

const listActiveUsersByRole = `-- name: ListActiveUsersByRole :many
SELECT ` + userColumns + ` FROM users WHERE role = ? AND is_active = 1 ORDER BY created_at DESC, id DESC`

func (q *Queries) ListActiveUsersByRole(ctx context.Context, role string) ([]User, error) {
	return q.listUsers(ctx, listActiveUsersByRole, role)
}
