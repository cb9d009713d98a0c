// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/olegiv/vitrine/internal/config"
	"github.com/olegiv/vitrine/internal/geoip"
	"github.com/olegiv/vitrine/internal/logging"
	"github.com/olegiv/vitrine/internal/store"
)

// app holds what every command needs: configuration, a logger and a
// migrated database.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB
}

// newLogger builds the console handler: text in development, JSON otherwise.
func newLogger(cfg *config.Config, w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsDevelopment() {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// openApp loads configuration, opens the database and applies migrations.
// Once the database is ready, warnings and errors are mirrored into the
// event log.
func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	console := newLogger(cfg, os.Stdout)
	logger := slog.New(console)
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	logger.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger = slog.New(logging.NewEventLogHandler(console, db))
	slog.SetDefault(logger)

	return &app{cfg: cfg, logger: logger, db: db}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error("error closing database connection", "error", err)
	}
}

// openGeoIP returns a lookup that stays disabled when no database is
// configured or it cannot be opened.
func (a *app) openGeoIP() *geoip.Lookup {
	geo := geoip.NewLookup()
	if !a.cfg.GeoIPEnabled() {
		a.logger.Debug("geoip not configured")
		return geo
	}
	if err := geo.Init(a.cfg.GeoIPDBPath); err != nil {
		a.logger.Warn("geoip disabled", "error", err)
	}
	return geo
}
