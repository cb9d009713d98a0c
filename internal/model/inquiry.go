// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// LeadStatus tracks follow-up on a sales lead.
type LeadStatus string

// Lead statuses
const (
	LeadStatusNew      LeadStatus = "new"
	LeadStatusAssigned LeadStatus = "assigned"
	LeadStatusClosed   LeadStatus = "closed"
)

// Contact is a message left through the public contact form.
type Contact struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Message   string    `json:"message"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Country   string    `json:"country,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Lead is a sales inquiry captured on the public site.
type Lead struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Company    string     `json:"company,omitempty"`
	Interest   string     `json:"interest,omitempty"`
	Message    string     `json:"message,omitempty"`
	Status     LeadStatus `json:"status"`
	AssignedTo *int64     `json:"assigned_to,omitempty"`
	IPAddress  string     `json:"ip_address,omitempty"`
	UserAgent  string     `json:"user_agent,omitempty"`
	Country    string     `json:"country,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
