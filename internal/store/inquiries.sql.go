// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const contactColumns = `id, name, email, phone, message, ip_address, user_agent, country, created_at`

func scanContact(row interface{ Scan(...any) error }) (Contact, error) {
	var i Contact
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Email,
		&i.Phone,
		&i.Message,
		&i.IpAddress,
		&i.UserAgent,
		&i.Country,
		&i.CreatedAt,
	)
	return i, err
}

const createContact = `-- name: CreateContact :one
INSERT INTO contacts (name, email, phone, message, ip_address, user_agent, country, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`

type CreateContactParams struct {
	Name      string
	Email     string
	Phone     string
	Message   string
	IpAddress string
	UserAgent string
	Country   string
	CreatedAt time.Time
}

func (q *Queries) CreateContact(ctx context.Context, arg CreateContactParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createContact,
		arg.Name,
		arg.Email,
		arg.Phone,
		arg.Message,
		arg.IpAddress,
		arg.UserAgent,
		arg.Country,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getContact = `-- name: GetContact :one
SELECT ` + contactColumns + ` FROM contacts WHERE id = ?`

func (q *Queries) GetContact(ctx context.Context, id int64) (Contact, error) {
	return scanContact(q.db.QueryRowContext(ctx, getContact, id))
}

const listContacts = `-- name: ListContacts :many
SELECT ` + contactColumns + ` FROM contacts ORDER BY created_at DESC, id DESC LIMIT ?`

func (q *Queries) ListContacts(ctx context.Context, limit int64) ([]Contact, error) {
	rows, err := q.db.QueryContext(ctx, listContacts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Contact{}
	for rows.Next() {
		i, err := scanContact(rows)
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

const leadColumns = `id, name, email, company, interest, message, status, assigned_to, ip_address, user_agent,
    country, created_at, updated_at`

func scanLead(row interface{ Scan(...any) error }) (Lead, error) {
	var i Lead
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Email,
		&i.Company,
		&i.Interest,
		&i.Message,
		&i.Status,
		&i.AssignedTo,
		&i.IpAddress,
		&i.UserAgent,
		&i.Country,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createLead = `-- name: CreateLead :one
INSERT INTO leads (name, email, company, interest, message, status, ip_address, user_agent, country,
    created_at, updated_at)
VALUES (?, ?, ?, ?, ?, 'new', ?, ?, ?, ?, ?)
RETURNING id`

type CreateLeadParams struct {
	Name      string
	Email     string
	Company   string
	Interest  string
	Message   string
	IpAddress string
	UserAgent string
	Country   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Queries) CreateLead(ctx context.Context, arg CreateLeadParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createLead,
		arg.Name,
		arg.Email,
		arg.Company,
		arg.Interest,
		arg.Message,
		arg.IpAddress,
		arg.UserAgent,
		arg.Country,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getLead = `-- name: GetLead :one
SELECT ` + leadColumns + ` FROM leads WHERE id = ?`

func (q *Queries) GetLead(ctx context.Context, id int64) (Lead, error) {
	return scanLead(q.db.QueryRowContext(ctx, getLead, id))
}

const assignLead = `-- name: AssignLead :execrows
UPDATE leads SET assigned_to = ?, status = 'assigned', updated_at = ?
WHERE id = ? AND status <> 'closed'`

type AssignLeadParams struct {
	AssignedTo sql.NullInt64
	UpdatedAt  time.Time
	ID         int64
}

func (q *Queries) AssignLead(ctx context.Context, arg AssignLeadParams) (int64, error) {
	return q.execRows(ctx, assignLead, arg.AssignedTo, arg.UpdatedAt, arg.ID)
}

const closeLead = `-- name: CloseLead :execrows
UPDATE leads SET status = 'closed', updated_at = ? WHERE id = ? AND status <> 'closed'`

func (q *Queries) CloseLead(ctx context.Context, updatedAt time.Time, id int64) (int64, error) {
	return q.execRows(ctx, closeLead, updatedAt, id)
}

const listLeads = `-- name: ListLeads :many
SELECT ` + leadColumns + ` FROM leads
WHERE (?1 = '' OR status = ?1)
ORDER BY created_at DESC, id DESC
LIMIT ?2`

// ListLeads filters by status unless status is empty.
func (q *Queries) ListLeads(ctx context.Context, status string, limit int64) ([]Lead, error) {
	rows, err := q.db.QueryContext(ctx, listLeads, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Lead{}
	for rows.Next() {
		i, err := scanLead(rows)
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
