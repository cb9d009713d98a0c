// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/olegiv/vitrine/internal/model"
	"github.com/olegiv/vitrine/internal/service"
	"github.com/olegiv/vitrine/internal/transfer"
)

func (a *app) catalogs() (products, gallery *service.CatalogService) {
	return service.NewCatalogService(a.db, model.ProductKind, nil, a.logger),
		service.NewCatalogService(a.db, model.GalleryKind, nil, a.logger)
}

func newExportCommand() *cobra.Command {
	var (
		out    string
		status string
	)
	opts := transfer.DefaultExportOptions()

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the product and gallery catalogs as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			opts.Status = status
			products, gallery := a.catalogs()
			exporter := transfer.NewExporter(products, gallery, a.cfg.SiteURL, a.logger)
			if out == "" || out == "-" {
				return exporter.ExportToWriter(cmd.Context(), opts, cmd.OutOrStdout())
			}
			if err := exporter.ExportToFile(cmd.Context(), opts, out); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "catalog exported to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")
	cmd.Flags().StringVar(&status, "status", "all", "Only export items in this status (draft, published, archived or all)")
	cmd.Flags().BoolVar(&opts.IncludeProducts, "products", true, "Include products")
	cmd.Flags().BoolVar(&opts.IncludeGallery, "gallery", true, "Include gallery items")
	return cmd
}

func newImportCommand() *cobra.Command {
	var conflict string
	opts := transfer.DefaultImportOptions()

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import catalog items from a JSON export",
		Long: "Import catalog items from a JSON export. Items are created as drafts " +
			"owned by the first active admin unless --keep-status is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy, err := transfer.ParseConflictStrategy(conflict)
			if err != nil {
				return err
			}
			opts.ConflictStrategy = strategy

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			actor, err := importActor(cmd.Context(), service.NewUserService(a.db))
			if err != nil {
				return err
			}

			products, gallery := a.catalogs()
			importer := transfer.NewImporter(products, gallery, a.logger)
			result, err := importer.ImportFromFile(cmd.Context(), actor, args[0], opts)
			if result != nil {
				writeImportResult(cmd.OutOrStdout(), result)
			}
			if err != nil {
				return err
			}
			if result.HasErrors() {
				return fmt.Errorf("import finished with %d errors", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Validate and count without creating anything")
	cmd.Flags().BoolVar(&opts.KeepStatus, "keep-status", false, "Publish or archive items the way they were exported")
	cmd.Flags().BoolVar(&opts.ImportProducts, "products", true, "Import products")
	cmd.Flags().BoolVar(&opts.ImportGallery, "gallery", true, "Import gallery items")
	cmd.Flags().StringVar(&conflict, "on-conflict", string(transfer.ConflictSkip), "What to do when a slug exists: skip or rename")
	return cmd
}

// importActor returns the admin that imported items are attributed to.
func importActor(ctx context.Context, users *service.UserService) (model.User, error) {
	admins, err := users.ListActiveAdmins(ctx)
	if err != nil {
		return model.User{}, err
	}
	if len(admins) == 0 {
		return model.User{}, errors.New("no active admin to own imported items; sign in once through the dashboard first")
	}
	return admins[0], nil
}

func writeImportResult(w io.Writer, result *transfer.ImportResult) {
	entities := make(map[string]bool)
	for e := range result.Created {
		entities[e] = true
	}
	for e := range result.Skipped {
		entities[e] = true
	}
	names := make([]string, 0, len(entities))
	for e := range entities {
		names = append(names, e)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, e := range names {
		rows = append(rows, []string{
			e,
			strconv.Itoa(result.Created[e]),
			strconv.Itoa(result.Skipped[e]),
		})
	}

	created := "Created"
	if result.DryRun {
		created = "Would create"
	}
	_, _ = fmt.Fprintln(w, renderTable(
		[]string{"Entity", created, "Skipped"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight},
	))

	for _, e := range result.Errors {
		_, _ = fmt.Fprintf(w, "error: %s %s: %s\n", e.Entity, e.ID, e.Message)
	}
}
