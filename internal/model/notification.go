// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"strconv"
	"time"
)

// NotificationType is the kind of workflow event a notification reports.
type NotificationType string

// Notification types
const (
	NotificationUserPending      NotificationType = "user_pending"
	NotificationUserApproved     NotificationType = "user_approved"
	NotificationNewContact       NotificationType = "new_contact"
	NotificationNewLead          NotificationType = "new_lead"
	NotificationLeadAssigned     NotificationType = "lead_assigned"
	NotificationContentPublished NotificationType = "content_published"
)

var notificationTypes = map[NotificationType]bool{
	NotificationUserPending:      true,
	NotificationUserApproved:     true,
	NotificationNewContact:       true,
	NotificationNewLead:          true,
	NotificationLeadAssigned:     true,
	NotificationContentPublished: true,
}

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	return notificationTypes[t]
}

// RecipientKind selects how a notification is addressed.
type RecipientKind string

// Recipient kinds
const (
	RecipientUser RecipientKind = "user"
	RecipientRole RecipientKind = "role"
)

// Recipient addresses a notification to one user or to everyone currently
// holding a role. Role recipients are resolved when notifications are read.
type Recipient struct {
	Kind  RecipientKind `json:"kind"`
	Value string        `json:"value"`
}

// UserRecipient addresses a single user.
func UserRecipient(userID int64) Recipient {
	return Recipient{Kind: RecipientUser, Value: strconv.FormatInt(userID, 10)}
}

// RoleRecipient addresses a role cohort.
func RoleRecipient(role Role) Recipient {
	return Recipient{Kind: RecipientRole, Value: string(role)}
}

// Notification is an in-app message. Read is the state as seen by the viewer
// that loaded it.
type Notification struct {
	ID        int64            `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Link      string           `json:"link,omitempty"`
	Recipient Recipient        `json:"recipient"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// IsBroadcast returns true for role-addressed notifications.
func (n *Notification) IsBroadcast() bool {
	return n.Recipient.Kind == RecipientRole
}
