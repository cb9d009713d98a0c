// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"slices"
	"time"
)

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth         = "auth"
	EventCategoryUser         = "user"
	EventCategoryContent      = "content"
	EventCategoryNotification = "notification"
	EventCategoryInquiry      = "inquiry"
	EventCategoryConfig       = "config"
	EventCategorySystem       = "system"
	EventCategoryCache        = "cache"
)

// EventCategories lists every audit category.
var EventCategories = []string{
	EventCategoryAuth,
	EventCategoryUser,
	EventCategoryContent,
	EventCategoryNotification,
	EventCategoryInquiry,
	EventCategoryConfig,
	EventCategorySystem,
	EventCategoryCache,
}

// IsEventCategory reports whether category is a known audit category.
func IsEventCategory(category string) bool {
	return slices.Contains(EventCategories, category)
}

// Event is one audit log entry. UserID is nil for anonymous and system events.
type Event struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	UserID    *int64    `json:"user_id,omitempty"`
	Metadata  string    `json:"metadata,omitempty"` // JSON object
	IPAddress string    `json:"ip_address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
