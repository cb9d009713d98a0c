// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/olegiv/vitrine/internal/cache"
	"github.com/olegiv/vitrine/internal/model"
	"github.com/olegiv/vitrine/internal/store"
	"github.com/olegiv/vitrine/internal/util"
)

// Content field limits.
const (
	MaxContentNameLength        = 200
	MaxContentDescriptionLength = 20000
	MaxContentAttributes        = 50
	maxSlugAttempts             = 1000
)

// descriptionSanitizer strips unsafe markup from rendered descriptions.
var descriptionSanitizer = bluemonday.UGCPolicy()

// ContentInput holds the fields of a new catalog item.
type ContentInput struct {
	Name string
	// Slug is the preferred slug. It is derived from Name when empty and
	// gets a numeric suffix when taken.
	Slug        string
	Description string
	Category    string
	ImageURL    string
	Attributes  map[string]string
}

// ContentPatch holds the fields to change on a draft. Nil fields are kept;
// a non-nil Attributes map replaces the stored attributes.
type ContentPatch struct {
	Name        *string
	Description *string
	Category    *string
	ImageURL    *string
	Attributes  map[string]string
}

// CatalogService runs the draft/published/archived lifecycle for one content
// kind. Products and gallery items each get their own instance.
//
// Any approved, active user may create, edit drafts and delete. Publish,
// Unpublish and Archive require an active admin. Published and archived
// items are edit-locked until unpublished.
type CatalogService struct {
	kind      model.ContentKind
	queries   *store.Queries
	listings  *cache.Namespace[[]model.ContentItem]
	logger    *slog.Logger
	now       func() time.Time
}

// NewCatalogService creates a CatalogService for kind. c may be nil to
// disable caching of public listings.
func NewCatalogService(db *sql.DB, kind model.ContentKind, c cache.Cacher, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &CatalogService{
		kind:    kind,
		queries: store.New(db),
		logger:  logger.With("kind", kind.Name),
		now:     func() time.Time { return time.Now().UTC() },
	}
	if c != nil {
		s.listings = cache.NewNamespace[[]model.ContentItem](c, "catalog:"+kind.Name, 0, s.logger)
	}
	return s
}

// Kind returns the content kind served by this catalog.
func (s *CatalogService) Kind() model.ContentKind {
	return s.kind
}

// Create stores a new draft owned by actor.
func (s *CatalogService) Create(ctx context.Context, actor model.User, in ContentInput) (model.ContentItem, error) {
	if !actor.CanEdit() {
		return model.ContentItem{}, forbidden("create " + s.kind.Name)
	}

	in.Name = strings.TrimSpace(in.Name)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if err := s.validate(in); err != nil {
		return model.ContentItem{}, err
	}

	if in.Slug != "" && !util.IsValidSlug(in.Slug) {
		return model.ContentItem{}, invalid("slug", "must contain only lowercase letters, digits and hyphens")
	}
	slugSource := in.Name
	if in.Slug != "" {
		slugSource = in.Slug
	}
	slug, err := s.uniqueSlug(ctx, slugSource, 0)
	if err != nil {
		return model.ContentItem{}, err
	}
	attrs, err := encodeAttributes(in.Attributes)
	if err != nil {
		return model.ContentItem{}, err
	}

	now := s.now()
	id, err := s.queries.CreateContentItem(ctx, store.CreateContentItemParams{
		Uuid:        uuid.NewString(),
		Kind:        s.kind.Name,
		Name:        in.Name,
		Slug:        slug,
		Description: in.Description,
		Category:    in.Category,
		ImageUrl:    in.ImageURL,
		Attributes:  attrs,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return model.ContentItem{}, fmt.Errorf("creating %s: %w", s.kind.Name, err)
	}

	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// Update applies patch to a draft. The slug is recomputed whenever the name changes.
func (s *CatalogService) Update(ctx context.Context, actor model.User, id int64, patch ContentPatch) (model.ContentItem, error) {
	if !actor.CanEdit() {
		return model.ContentItem{}, forbidden("update " + s.kind.Name)
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return model.ContentItem{}, err
	}
	if !current.IsDraft() {
		return model.ContentItem{}, invalidState("%s %d is %s; unpublish it before editing", s.kind.Name, id, current.Status)
	}

	in := ContentInput{
		Name:        current.Name,
		Description: current.Description,
		Category:    current.Category,
		ImageURL:    current.ImageURL,
		Attributes:  current.Attributes,
	}
	if patch.Name != nil {
		in.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		in.Description = *patch.Description
	}
	if patch.Category != nil {
		in.Category = *patch.Category
	}
	if patch.ImageURL != nil {
		in.ImageURL = strings.TrimSpace(*patch.ImageURL)
	}
	if patch.Attributes != nil {
		in.Attributes = patch.Attributes
	}
	if err := s.validate(in); err != nil {
		return model.ContentItem{}, err
	}

	slug := current.Slug
	if in.Name != current.Name {
		if slug, err = s.uniqueSlug(ctx, in.Name, id); err != nil {
			return model.ContentItem{}, err
		}
	}
	attrs, err := encodeAttributes(in.Attributes)
	if err != nil {
		return model.ContentItem{}, err
	}

	rows, err := s.queries.UpdateDraftContentItem(ctx, store.UpdateDraftContentItemParams{
		Name:        in.Name,
		Slug:        slug,
		Description: in.Description,
		Category:    in.Category,
		ImageUrl:    in.ImageURL,
		Attributes:  attrs,
		UpdatedAt:   s.now(),
		Kind:        s.kind.Name,
		ID:          id,
	})
	if err != nil {
		return model.ContentItem{}, fmt.Errorf("updating %s %d: %w", s.kind.Name, id, err)
	}
	if rows == 0 {
		return model.ContentItem{}, s.explainNoop(ctx, id, "%s %d is no longer a draft")
	}

	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// Publish moves a draft to published and records actor as publisher.
func (s *CatalogService) Publish(ctx context.Context, actor model.User, id int64) (model.ContentItem, error) {
	if !actor.CanAdminister() {
		return model.ContentItem{}, forbidden("publish " + s.kind.Name)
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return model.ContentItem{}, err
	}
	if !current.IsDraft() {
		return model.ContentItem{}, invalidState("%s %d is %s, only drafts can be published", s.kind.Name, id, current.Status)
	}
	if s.kind.RequiresImage(current.Category) && current.ImageURL == "" {
		return model.ContentItem{}, invalid("image_url", fmt.Sprintf("is required to publish in category %q", current.Category))
	}

	now := s.now()
	rows, err := s.queries.PublishContentItem(ctx, store.PublishContentItemParams{
		PublishedBy: util.NullInt64FromValue(actor.ID),
		PublishedAt: util.NullTimeFromValue(now),
		UpdatedAt:   now,
		Kind:        s.kind.Name,
		ID:          id,
	})
	if err != nil {
		return model.ContentItem{}, fmt.Errorf("publishing %s %d: %w", s.kind.Name, id, err)
	}
	if rows == 0 {
		return model.ContentItem{}, s.explainNoop(ctx, id, "%s %d is no longer a draft")
	}

	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// Unpublish returns a published or archived item to draft. Publisher
// metadata is kept.
func (s *CatalogService) Unpublish(ctx context.Context, actor model.User, id int64) (model.ContentItem, error) {
	if !actor.CanAdminister() {
		return model.ContentItem{}, forbidden("unpublish " + s.kind.Name)
	}

	rows, err := s.queries.UnpublishContentItem(ctx, s.now(), s.kind.Name, id)
	if err != nil {
		return model.ContentItem{}, fmt.Errorf("unpublishing %s %d: %w", s.kind.Name, id, err)
	}
	if rows == 0 {
		return model.ContentItem{}, s.explainNoop(ctx, id, "%s %d is already a draft")
	}

	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// Archive moves an item to archived from any status. Archiving an archived
// item is a no-op.
func (s *CatalogService) Archive(ctx context.Context, actor model.User, id int64) (model.ContentItem, error) {
	if !actor.CanAdminister() {
		return model.ContentItem{}, forbidden("archive " + s.kind.Name)
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return model.ContentItem{}, err
	}
	if current.IsArchived() {
		return current, nil
	}

	if _, err := s.queries.ArchiveContentItem(ctx, s.now(), s.kind.Name, id); err != nil {
		return model.ContentItem{}, fmt.Errorf("archiving %s %d: %w", s.kind.Name, id, err)
	}

	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// Delete permanently removes an item in any status.
func (s *CatalogService) Delete(ctx context.Context, actor model.User, id int64) error {
	if !actor.CanEdit() {
		return forbidden("delete " + s.kind.Name)
	}

	rows, err := s.queries.DeleteContentItem(ctx, s.kind.Name, id)
	if err != nil {
		return fmt.Errorf("deleting %s %d: %w", s.kind.Name, id, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %d: %w", s.kind.Name, id, ErrNotFound)
	}

	s.invalidate(ctx)
	return nil
}

// Get returns the item with the given id.
func (s *CatalogService) Get(ctx context.Context, id int64) (model.ContentItem, error) {
	row, err := s.queries.GetContentItem(ctx, s.kind.Name, id)
	if err != nil {
		return model.ContentItem{}, notFound(err, "%s %d", s.kind.Name, id)
	}
	return contentFromRow(row), nil
}

// GetBySlugOrID resolves ref as a public UUID, then a slug. A numeric ref
// that matches no slug is tried as an id.
func (s *CatalogService) GetBySlugOrID(ctx context.Context, ref string) (model.ContentItem, error) {
	ref = strings.TrimSpace(ref)
	if _, err := uuid.Parse(ref); err == nil {
		row, err := s.queries.GetContentItemByUUID(ctx, s.kind.Name, ref)
		if err != nil {
			return model.ContentItem{}, notFound(err, "%s %s", s.kind.Name, ref)
		}
		return contentFromRow(row), nil
	}
	row, err := s.queries.GetContentItemBySlug(ctx, s.kind.Name, ref)
	if err == nil {
		return contentFromRow(row), nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		if id, ok := util.ParsePositiveInt64(ref); ok {
			return s.Get(ctx, id)
		}
	}
	return model.ContentItem{}, notFound(err, "%s %q", s.kind.Name, ref)
}

// List returns every item of the kind, newest first.
func (s *CatalogService) List(ctx context.Context) ([]model.ContentItem, error) {
	rows, err := s.queries.ListContentItems(ctx, s.kind.Name)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.kind.Name, err)
	}
	return contentsFromRows(rows), nil
}

// ListByStatus returns items in status, newest first.
func (s *CatalogService) ListByStatus(ctx context.Context, status model.ContentStatus) ([]model.ContentItem, error) {
	rows, err := s.queries.ListContentItemsByStatus(ctx, s.kind.Name, string(status))
	if err != nil {
		return nil, fmt.Errorf("listing %s by status: %w", s.kind.Name, err)
	}
	return contentsFromRows(rows), nil
}

// ListByCategory returns items in category. With publishedOnly set the
// result is the public listing, served from cache when available.
func (s *CatalogService) ListByCategory(ctx context.Context, category string, publishedOnly bool) ([]model.ContentItem, error) {
	if category != "" && !s.kind.HasCategory(category) {
		return nil, invalid("category", fmt.Sprintf("unknown %s category %q", s.kind.Name, category))
	}
	if publishedOnly {
		return s.ListPublished(ctx, category)
	}
	if category == "" {
		return s.List(ctx)
	}
	rows, err := s.queries.ListContentItemsByCategory(ctx, s.kind.Name, category)
	if err != nil {
		return nil, fmt.Errorf("listing %s by category: %w", s.kind.Name, err)
	}
	return contentsFromRows(rows), nil
}

// ListPublished returns published items, newest publication first. An empty
// category lists all categories.
func (s *CatalogService) ListPublished(ctx context.Context, category string) ([]model.ContentItem, error) {
	load := func() ([]model.ContentItem, error) {
		rows, err := s.queries.ListPublishedContentItems(ctx, s.kind.Name, category)
		if err != nil {
			return nil, fmt.Errorf("listing published %s: %w", s.kind.Name, err)
		}
		return contentsFromRows(rows), nil
	}

	if s.listings == nil {
		return load()
	}
	return s.listings.GetOrLoad(ctx, "published:"+category, load)
}

// GetPublished returns a published item by slug or id; drafts and archived
// items are reported as not found.
func (s *CatalogService) GetPublished(ctx context.Context, ref string) (model.ContentItem, error) {
	item, err := s.GetBySlugOrID(ctx, ref)
	if err != nil {
		return model.ContentItem{}, err
	}
	if !item.IsPublished() {
		return model.ContentItem{}, fmt.Errorf("%s %q: %w", s.kind.Name, ref, ErrNotFound)
	}
	return item, nil
}

func (s *CatalogService) validate(in ContentInput) error {
	switch {
	case in.Name == "":
		return invalid("name", "is required")
	case len(in.Name) > MaxContentNameLength:
		return invalid("name", fmt.Sprintf("must be at most %d characters", MaxContentNameLength))
	case len(in.Description) > MaxContentDescriptionLength:
		return invalid("description", fmt.Sprintf("must be at most %d characters", MaxContentDescriptionLength))
	case !s.kind.HasCategory(in.Category):
		return invalid("category", fmt.Sprintf("must be one of %s", strings.Join(s.kind.Categories, ", ")))
	case len(in.Attributes) > MaxContentAttributes:
		return invalid("attributes", fmt.Sprintf("at most %d attributes are allowed", MaxContentAttributes))
	}
	if in.ImageURL != "" && !isImageReference(in.ImageURL) {
		return invalid("image_url", "must be an http(s) URL or an absolute path")
	}
	return nil
}

// uniqueSlug derives a slug from name and appends -2, -3, ... until it no
// longer collides with another item of the same kind.
func (s *CatalogService) uniqueSlug(ctx context.Context, name string, excludeID int64) (string, error) {
	base := util.Slugify(name)
	if base == "" {
		base = s.kind.Name
	}
	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := util.SlugWithSuffix(base, n)
		taken, err := s.queries.ContentSlugExists(ctx, s.kind.Name, candidate, excludeID)
		if err != nil {
			return "", fmt.Errorf("checking slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", invalid("name", "too many items share this name")
}

func (s *CatalogService) explainNoop(ctx context.Context, id int64, stateFormat string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return invalidState(stateFormat, s.kind.Name, id)
}

// invalidate drops every cached listing of this kind. Cache failures are
// logged and never fail the mutation.
func (s *CatalogService) invalidate(ctx context.Context) {
	if s.listings == nil {
		return
	}
	if err := s.listings.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate catalog cache", "error", err)
	}
}

// RenderDescription converts a markdown description to sanitized HTML.
func RenderDescription(markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return descriptionSanitizer.Sanitize(markdown)
	}
	return descriptionSanitizer.Sanitize(buf.String())
}

func isImageReference(ref string) bool {
	if strings.HasPrefix(ref, "/") && !strings.HasPrefix(ref, "//") {
		return true
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func encodeAttributes(attrs map[string]string) (string, error) {
	if len(attrs) == 0 {
		return "{}", nil
	}
	clean := make(map[string]string, len(attrs))
	for k, v := range attrs {
		k = strings.TrimSpace(k)
		if k == "" {
			return "", invalid("attributes", "keys must not be empty")
		}
		clean[k] = v
	}
	data, err := json.Marshal(clean)
	if err != nil {
		return "", fmt.Errorf("encoding attributes: %w", err)
	}
	return string(data), nil
}

func contentFromRow(r store.ContentItem) model.ContentItem {
	var attrs map[string]string
	if r.Attributes != "" && r.Attributes != "{}" {
		_ = json.Unmarshal([]byte(r.Attributes), &attrs)
	}
	return model.ContentItem{
		ID:              r.ID,
		UUID:            r.Uuid,
		Kind:            r.Kind,
		Name:            r.Name,
		Slug:            r.Slug,
		Description:     r.Description,
		DescriptionHTML: RenderDescription(r.Description),
		Category:        r.Category,
		ImageURL:        r.ImageUrl,
		Attributes:      attrs,
		Status:          model.ContentStatus(r.Status),
		CreatedBy:       r.CreatedBy,
		PublishedBy:     util.Int64PtrFromNull(r.PublishedBy),
		PublishedAt:     util.TimePtrFromNull(r.PublishedAt),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func contentsFromRows(rows []store.ContentItem) []model.ContentItem {
	items := make([]model.ContentItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, contentFromRow(r))
	}
	return items
}
