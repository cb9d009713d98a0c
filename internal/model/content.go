// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"slices"
	"time"
)

// ContentStatus is a stage of the publication lifecycle.
type ContentStatus string

// Content statuses
const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusPublished ContentStatus = "published"
	ContentStatusArchived  ContentStatus = "archived"
)

// ParseContentStatus converts a string into a ContentStatus, reporting whether it is known.
func ParseContentStatus(s string) (ContentStatus, bool) {
	switch ContentStatus(s) {
	case ContentStatusDraft, ContentStatusPublished, ContentStatusArchived:
		return ContentStatus(s), true
	}
	return "", false
}

// ContentKind describes one catalog that shares the publication lifecycle.
type ContentKind struct {
	Name       string
	Label      string
	Categories []string
	// ImageCategories lists the categories that cannot be published without an image.
	ImageCategories []string
}

// HasCategory reports whether category belongs to the kind's closed set.
func (k ContentKind) HasCategory(category string) bool {
	return slices.Contains(k.Categories, category)
}

// RequiresImage reports whether publishing in category needs an image.
func (k ContentKind) RequiresImage(category string) bool {
	return slices.Contains(k.ImageCategories, category)
}

// Catalog kinds
var (
	ProductKind = ContentKind{
		Name:            "product",
		Label:           "Product",
		Categories:      []string{"residential", "commercial", "industrial", "accessories"},
		ImageCategories: []string{"residential", "commercial", "industrial"},
	}
	GalleryKind = ContentKind{
		Name:            "gallery",
		Label:           "Gallery item",
		Categories:      []string{"projects", "installations", "showroom", "events"},
		ImageCategories: []string{"projects", "installations", "showroom", "events"},
	}
)

// ContentItem is a product or gallery entry.
type ContentItem struct {
	ID              int64             `json:"id"`
	UUID            string            `json:"uuid"`
	Kind            string            `json:"kind"`
	Name            string            `json:"name"`
	Slug            string            `json:"slug"`
	Description     string            `json:"description"`
	DescriptionHTML string            `json:"description_html,omitempty"`
	Category        string            `json:"category"`
	ImageURL        string            `json:"image_url,omitempty"`
	Attributes      map[string]string `json:"attributes,omitempty"`
	Status          ContentStatus     `json:"status"`
	CreatedBy       int64             `json:"created_by"`
	PublishedBy     *int64            `json:"published_by,omitempty"`
	PublishedAt     *time.Time        `json:"published_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// IsPublished returns true if the item is published.
func (c *ContentItem) IsPublished() bool {
	return c.Status == ContentStatusPublished
}

// IsDraft returns true if the item is a draft.
func (c *ContentItem) IsDraft() bool {
	return c.Status == ContentStatusDraft
}

// IsArchived returns true if the item is archived.
func (c *ContentItem) IsArchived() bool {
	return c.Status == ContentStatusArchived
}
