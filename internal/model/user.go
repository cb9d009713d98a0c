// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application
// including User, Notification, ContentItem, Lead and Event.
package model

import (
	"time"
)

// Role is a user's position in the approval workflow.
type Role string

// User roles
const (
	RolePending Role = "pending"
	RoleEditor  Role = "editor"
	RoleAdmin   Role = "admin"
)

// Roles lists every role a user can hold.
var Roles = []Role{RolePending, RoleEditor, RoleAdmin}

// ParseRole converts a string into a Role, reporting whether it is known.
func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// Assignable reports whether the role can be granted by approval or reassignment.
func (r Role) Assignable() bool {
	return r == RoleAdmin || r == RoleEditor
}

// User represents a team member known through the identity provider.
type User struct {
	ID        int64     `json:"id"`
	SubjectID string    `json:"subject_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      Role      `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsPending returns true while the user awaits approval.
func (u *User) IsPending() bool {
	return u.Role == RolePending
}

// CanEdit returns true for approved, active users.
func (u *User) CanEdit() bool {
	return !u.IsPending() && u.Active
}

// CanAdminister returns true for active admins.
func (u *User) CanAdminister() bool {
	return u.IsAdmin() && u.Active
}
