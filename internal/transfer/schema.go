// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package transfer provides JSON export and import of the product and
// gallery catalogs.
package transfer

import (
	"fmt"
	"time"
)

// ExportVersion is the current version of the export format.
const ExportVersion = "1.0"

// ExportData represents the complete export structure.
type ExportData struct {
	Version    string              `json:"version"`
	ExportedAt time.Time           `json:"exported_at"`
	Site       ExportSite          `json:"site"`
	Products   []ExportContentItem `json:"products,omitempty"`
	Gallery    []ExportContentItem `json:"gallery,omitempty"`
}

// ExportSite contains basic site information.
type ExportSite struct {
	URL string `json:"url,omitempty"`
}

// ExportContentItem is one catalog entry. Ownership and ids are not
// exported; imported items belong to the importing admin.
type ExportContentItem struct {
	UUID        string            `json:"uuid"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Description string            `json:"description,omitempty"`
	Category    string            `json:"category"`
	ImageURL    string            `json:"image_url,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Status      string            `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	PublishedAt *time.Time        `json:"published_at,omitempty"`
}

// ExportOptions configures what to include in the export.
type ExportOptions struct {
	IncludeProducts bool `json:"include_products"`
	IncludeGallery  bool `json:"include_gallery"`
	// Status limits the export to one status; "all" or empty exports everything.
	Status string `json:"status"`
}

// DefaultExportOptions returns options that include everything.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		IncludeProducts: true,
		IncludeGallery:  true,
		Status:          "all",
	}
}

// ConflictStrategy decides what happens to an item whose slug already exists.
type ConflictStrategy string

// Conflict strategies
const (
	ConflictSkip   ConflictStrategy = "skip"
	ConflictRename ConflictStrategy = "rename"
)

// ParseConflictStrategy converts a flag value into a ConflictStrategy.
func ParseConflictStrategy(s string) (ConflictStrategy, error) {
	switch ConflictStrategy(s) {
	case ConflictSkip, ConflictRename:
		return ConflictStrategy(s), nil
	}
	return "", fmt.Errorf("unknown conflict strategy %q", s)
}

// ImportOptions configures the import operation.
type ImportOptions struct {
	DryRun           bool
	ImportProducts   bool
	ImportGallery    bool
	ConflictStrategy ConflictStrategy
	// KeepStatus re-applies the exported published or archived status after
	// creating the draft.
	KeepStatus bool
}

// DefaultImportOptions imports both catalogs as drafts, skipping conflicts.
func DefaultImportOptions() ImportOptions {
	return ImportOptions{
		ImportProducts:   true,
		ImportGallery:    true,
		ConflictStrategy: ConflictSkip,
	}
}

// ImportError describes one entity that failed validation or creation.
type ImportError struct {
	Entity  string `json:"entity"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// ImportResult counts what the import did per entity type.
type ImportResult struct {
	DryRun  bool           `json:"dry_run"`
	Created map[string]int `json:"created"`
	Skipped map[string]int `json:"skipped"`
	Errors  []ImportError  `json:"errors,omitempty"`
}

// NewImportResult creates an empty result.
func NewImportResult(dryRun bool) *ImportResult {
	return &ImportResult{
		DryRun:  dryRun,
		Created: make(map[string]int),
		Skipped: make(map[string]int),
	}
}

// IncrementCreated counts one created entity.
func (r *ImportResult) IncrementCreated(entity string) {
	r.Created[entity]++
}

// IncrementSkipped counts one skipped entity.
func (r *ImportResult) IncrementSkipped(entity string) {
	r.Skipped[entity]++
}

// AddError records a failure.
func (r *ImportResult) AddError(entity, id, message string) {
	r.Errors = append(r.Errors, ImportError{Entity: entity, ID: id, Message: message})
}

// TotalCreated returns the number of created entities.
func (r *ImportResult) TotalCreated() int {
	total := 0
	for _, n := range r.Created {
		total += n
	}
	return total
}

// TotalSkipped returns the number of skipped entities.
func (r *ImportResult) TotalSkipped() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}

// HasErrors reports whether any entity failed.
func (r *ImportResult) HasErrors() bool {
	return len(r.Errors) > 0
}
