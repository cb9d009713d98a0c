// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/olegiv/vitrine/internal/model"
	"github.com/olegiv/vitrine/internal/service"
)

// Exporter writes the catalogs as JSON.
type Exporter struct {
	products *service.CatalogService
	gallery  *service.CatalogService
	siteURL  string
	logger   *slog.Logger
}

// NewExporter creates a new Exporter instance.
func NewExporter(products, gallery *service.CatalogService, siteURL string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		products: products,
		gallery:  gallery,
		siteURL:  siteURL,
		logger:   logger,
	}
}

// Export collects the selected catalogs.
func (e *Exporter) Export(ctx context.Context, opts ExportOptions) (*ExportData, error) {
	data := &ExportData{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC(),
		Site:       ExportSite{URL: e.siteURL},
	}

	var err error
	if opts.IncludeProducts {
		if data.Products, err = e.exportCatalog(ctx, e.products, opts.Status); err != nil {
			return nil, err
		}
	}
	if opts.IncludeGallery {
		if data.Gallery, err = e.exportCatalog(ctx, e.gallery, opts.Status); err != nil {
			return nil, err
		}
	}

	e.logger.Info("catalog exported",
		"products", len(data.Products),
		"gallery", len(data.Gallery),
	)
	return data, nil
}

// ExportToWriter writes the export as indented JSON.
func (e *Exporter) ExportToWriter(ctx context.Context, opts ExportOptions, w io.Writer) error {
	data, err := e.Export(ctx, opts)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportToFile writes the export as JSON to a file.
func (e *Exporter) ExportToFile(ctx context.Context, opts ExportOptions, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return e.ExportToWriter(ctx, opts, f)
}

func (e *Exporter) exportCatalog(ctx context.Context, catalog *service.CatalogService, status string) ([]ExportContentItem, error) {
	var (
		items []model.ContentItem
		err   error
	)
	if status == "" || status == "all" {
		items, err = catalog.List(ctx)
	} else {
		st, ok := model.ParseContentStatus(status)
		if !ok {
			return nil, fmt.Errorf("unknown status filter %q", status)
		}
		items, err = catalog.ListByStatus(ctx, st)
	}
	if err != nil {
		return nil, fmt.Errorf("exporting %s: %w", catalog.Kind().Name, err)
	}

	out := make([]ExportContentItem, 0, len(items))
	for _, item := range items {
		out = append(out, ExportContentItem{
			UUID:        item.UUID,
			Name:        item.Name,
			Slug:        item.Slug,
			Description: item.Description,
			Category:    item.Category,
			ImageURL:    item.ImageURL,
			Attributes:  item.Attributes,
			Status:      string(item.Status),
			CreatedAt:   item.CreatedAt,
			UpdatedAt:   item.UpdatedAt,
			PublishedAt: item.PublishedAt,
		})
	}
	return out, nil
}
