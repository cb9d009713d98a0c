// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/olegiv/vitrine/internal/model"
	"github.com/olegiv/vitrine/internal/service"
	"github.com/olegiv/vitrine/internal/util"
)

// Importer creates catalog items from an export. Items go through the
// catalog services, so every import is validated and slugged exactly like
// an item created from the dashboard.
type Importer struct {
	products *service.CatalogService
	gallery  *service.CatalogService
	logger   *slog.Logger
}

// NewImporter creates a new Importer instance.
func NewImporter(products, gallery *service.CatalogService, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		products: products,
		gallery:  gallery,
		logger:   logger,
	}
}

// Import creates the items of data on behalf of actor, who must be an
// active admin. Validation errors abort the whole import; failures of
// individual items are recorded and the import continues.
func (i *Importer) Import(ctx context.Context, actor model.User, data *ExportData, opts ImportOptions) (*ImportResult, error) {
	if !actor.CanAdminister() {
		return nil, fmt.Errorf("import catalog: %w", service.ErrForbidden)
	}

	result := NewImportResult(opts.DryRun)

	if validationErrors := i.Validate(data); len(validationErrors) > 0 {
		result.Errors = append(result.Errors, validationErrors...)
		return result, errors.New("validation failed")
	}

	if opts.ImportProducts {
		if err := i.importCatalog(ctx, actor, i.products, data.Products, opts, result); err != nil {
			return result, err
		}
	}
	if opts.ImportGallery {
		if err := i.importCatalog(ctx, actor, i.gallery, data.Gallery, opts, result); err != nil {
			return result, err
		}
	}

	i.logger.Info("catalog imported",
		"dry_run", opts.DryRun,
		"created", result.TotalCreated(),
		"skipped", result.TotalSkipped(),
		"errors", len(result.Errors),
	)
	return result, nil
}

// ImportFromReader decodes an export from r and imports it.
func (i *Importer) ImportFromReader(ctx context.Context, actor model.User, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	var data ExportData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return i.Import(ctx, actor, &data, opts)
}

// ImportFromFile imports the export stored at path.
func (i *Importer) ImportFromFile(ctx context.Context, actor model.User, path string, opts ImportOptions) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return i.ImportFromReader(ctx, actor, f, opts)
}

// Validate checks the export without touching the database.
func (i *Importer) Validate(data *ExportData) []ImportError {
	var errs []ImportError

	if data == nil {
		return []ImportError{{Entity: "export", Message: "export data is empty"}}
	}
	if !strings.HasPrefix(data.Version, "1.") {
		errs = append(errs, ImportError{
			Entity:  "export",
			ID:      data.Version,
			Message: fmt.Sprintf("unsupported export version %q", data.Version),
		})
	}

	errs = append(errs, validateItems(i.products.Kind(), data.Products)...)
	errs = append(errs, validateItems(i.gallery.Kind(), data.Gallery)...)
	return errs
}

func validateItems(kind model.ContentKind, items []ExportContentItem) []ImportError {
	var errs []ImportError
	seen := make(map[string]bool, len(items))

	for idx, item := range items {
		id := item.Slug
		if id == "" {
			id = fmt.Sprintf("#%d", idx+1)
		}
		add := func(msg string) {
			errs = append(errs, ImportError{Entity: kind.Name, ID: id, Message: msg})
		}

		if strings.TrimSpace(item.Name) == "" {
			add("name is required")
		}
		if !kind.HasCategory(item.Category) {
			add(fmt.Sprintf("unknown category %q", item.Category))
		}
		if _, ok := model.ParseContentStatus(item.Status); !ok {
			add(fmt.Sprintf("unknown status %q", item.Status))
		}
		if item.Slug != "" {
			if !util.IsValidSlug(item.Slug) {
				add("invalid slug")
			}
			if seen[item.Slug] {
				add("duplicate slug in export")
			}
			seen[item.Slug] = true
		}
	}
	return errs
}

func (i *Importer) importCatalog(
	ctx context.Context,
	actor model.User,
	catalog *service.CatalogService,
	items []ExportContentItem,
	opts ImportOptions,
	result *ImportResult,
) error {
	kind := catalog.Kind().Name
	if len(items) == 0 {
		return nil
	}

	existing, err := catalog.List(ctx)
	if err != nil {
		return fmt.Errorf("loading existing %s: %w", kind, err)
	}
	slugs := make(map[string]bool, len(existing))
	for _, item := range existing {
		slugs[item.Slug] = true
	}

	for _, item := range items {
		if item.Slug != "" && slugs[item.Slug] && opts.ConflictStrategy != ConflictRename {
			result.IncrementSkipped(kind)
			continue
		}
		if opts.DryRun {
			result.IncrementCreated(kind)
			continue
		}

		created, err := catalog.Create(ctx, actor, service.ContentInput{
			Name:        item.Name,
			Slug:        item.Slug,
			Description: item.Description,
			Category:    item.Category,
			ImageURL:    item.ImageURL,
			Attributes:  item.Attributes,
		})
		if err != nil {
			result.AddError(kind, item.Slug, err.Error())
			continue
		}
		slugs[created.Slug] = true
		result.IncrementCreated(kind)

		if opts.KeepStatus {
			if err := restoreStatus(ctx, actor, catalog, created.ID, item.Status); err != nil {
				result.AddError(kind, created.Slug, err.Error())
			}
		}
	}
	return nil
}

func restoreStatus(ctx context.Context, actor model.User, catalog *service.CatalogService, id int64, status string) error {
	var err error
	switch model.ContentStatus(status) {
	case model.ContentStatusPublished:
		_, err = catalog.Publish(ctx, actor, id)
	case model.ContentStatusArchived:
		_, err = catalog.Archive(ctx, actor, id)
	}
	return err
}
