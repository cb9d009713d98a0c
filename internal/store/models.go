// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// User is a row of the users table.
type User struct {
	ID        int64          `json:"id"`
	SubjectID string         `json:"subject_id"`
	Email     string         `json:"email"`
	Name      string         `json:"name"`
	AvatarUrl sql.NullString `json:"avatar_url"`
	Role      string         `json:"role"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Notification is a row of the notifications table. For role-addressed
// rows read through the viewer queries, IsRead is the viewer's receipt.
type Notification struct {
	ID             int64          `json:"id"`
	Type           string         `json:"type"`
	Title          string         `json:"title"`
	Message        string         `json:"message"`
	Link           sql.NullString `json:"link"`
	RecipientKind  string         `json:"recipient_kind"`
	RecipientValue string         `json:"recipient_value"`
	IsRead         bool           `json:"is_read"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ContentItem is a row of the content_items table.
type ContentItem struct {
	ID          int64         `json:"id"`
	Uuid        string        `json:"uuid"`
	Kind        string        `json:"kind"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	ImageUrl    string        `json:"image_url"`
	Attributes  string        `json:"attributes"`
	Status      string        `json:"status"`
	CreatedBy   int64         `json:"created_by"`
	PublishedBy sql.NullInt64 `json:"published_by"`
	PublishedAt sql.NullTime  `json:"published_at"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Contact is a row of the contacts table.
type Contact struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Message   string    `json:"message"`
	IpAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"created_at"`
}

// Lead is a row of the leads table.
type Lead struct {
	ID         int64         `json:"id"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	Company    string        `json:"company"`
	Interest   string        `json:"interest"`
	Message    string        `json:"message"`
	Status     string        `json:"status"`
	AssignedTo sql.NullInt64 `json:"assigned_to"`
	IpAddress  string        `json:"ip_address"`
	UserAgent  string        `json:"user_agent"`
	Country    string        `json:"country"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Event is a row of the events table.
type Event struct {
	ID        int64         `json:"id"`
	Level     string        `json:"level"`
	Category  string        `json:"category"`
	Message   string        `json:"message"`
	UserID    sql.NullInt64 `json:"user_id"`
	Metadata  string        `json:"metadata"`
	IpAddress string        `json:"ip_address"`
	CreatedAt time.Time     `json:"created_at"`
}
