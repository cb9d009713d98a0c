// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/olegiv/vitrine/internal/cache"
	"github.com/olegiv/vitrine/internal/config"
	"github.com/olegiv/vitrine/internal/geoip"
	"github.com/olegiv/vitrine/internal/handler/api"
	"github.com/olegiv/vitrine/internal/mail"
	"github.com/olegiv/vitrine/internal/middleware"
	"github.com/olegiv/vitrine/internal/model"
	"github.com/olegiv/vitrine/internal/scheduler"
	"github.com/olegiv/vitrine/internal/service"
	"github.com/olegiv/vitrine/internal/session"
	"github.com/olegiv/vitrine/internal/version"
)

func runServe(ctx context.Context, info version.Info) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()
	cfg, logger, db := a.cfg, a.logger, a.db

	logger.Info("starting vitrine", info.LogAttrs()...)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cacheCfg := cache.DefaultCacheConfig()
	if cfg.UseRedisCache() {
		cacheCfg.RedisURL = cfg.RedisURL
	}
	cacheCfg.Prefix = cfg.CachePrefix
	cacheCfg.DefaultTTL = cfg.CacheDefaultTTL()
	cacheCfg.MaxSize = cfg.CacheMaxSize
	cached, err := cache.NewCache(cacheCfg, logger)
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() { _ = cached.Cache.Close() }()
	logger.Info("cache ready", "backend", cached.Backend, "fallback", cached.IsFallback)

	geo := a.openGeoIP()
	defer func() { _ = geo.Close() }()

	var mailer mail.Mailer = mail.NewNoopMailer(logger)
	if cfg.MailEnabled() {
		relayCfg := mail.DefaultConfig(cfg.MailRelayURL, cfg.MailRelaySecret)
		relayCfg.From = cfg.MailFrom
		relayCfg.Workers = cfg.MailWorkers
		relayCfg.AllowPrivate = cfg.MailAllowPrivate
		relay, err := mail.NewRelayMailer(relayCfg, logger)
		if err != nil {
			return err
		}
		relay.Start(ctx)
		defer relay.Stop()
		mailer = relay
		logger.Info("mail relay enabled", "workers", relayCfg.Workers)
	}

	users := service.NewUserService(db)
	userCount, err := users.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if userCount == 0 {
		logger.Warn("no users yet, the first identity to sign in becomes admin")
	}
	notifications := service.NewNotificationService(db)
	inquiries := service.NewInquiryService(db, geo)
	events := service.NewEventService(db, logger)
	products := service.NewCatalogService(db, model.ProductKind, cached.Cache, logger)
	gallery := service.NewCatalogService(db, model.GalleryKind, cached.Cache, logger)
	wf := service.NewWorkflow(users, notifications, inquiries, events, mailer, cfg.DashboardURL, logger)

	sched, err := newScheduler(a, notifications, events, geo)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	sm := session.New(db, cfg.IsDevelopment())
	headers := identityHeaders(cfg)

	h := api.NewHandler(api.Deps{
		DB:            db,
		Users:         users,
		Notifications: notifications,
		Inquiries:     inquiries,
		Products:      products,
		Gallery:       gallery,
		Workflow:      wf,
		Cache:         cached.Cache,
		Logger:        logger,
		TrustProxy:    cfg.TrustProxy,
		SiteURL:       cfg.SiteURL,
		Version:       info.Version,
	})
	router := h.Routes(api.RouterConfig{
		Sessions:      sm,
		Identity:      middleware.NewIdentity(sm, users, wf, headers, logger),
		CSRF:          middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.CORSOrigins)),
		CORSOrigins:   cfg.CORSOrigins,
		RateLimiter:   middleware.NewIPRateLimiter(cfg.InquiryRateLimit, cfg.InquiryBurst, cfg.TrustProxy, logger),
		IsDevelopment: cfg.IsDevelopment(),
		LogRequests:   cfg.IsDevelopment(),
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	_ = events.LogSystemEvent(ctx, model.EventLevelInfo, "Server started", map[string]any{
		"version": info.Version,
		"addr":    cfg.ServerAddr(),
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	_ = events.LogSystemEvent(shutdownCtx, model.EventLevelInfo, "Server stopped", nil)
	logger.Info("server stopped")
	return nil
}

// identityHeaders fills unset header names from the X-Auth-* defaults.
func identityHeaders(cfg *config.Config) middleware.IdentityHeaders {
	headers := middleware.DefaultIdentityHeaders()
	for dst, src := range map[*string]string{
		&headers.Subject: cfg.SubjectHeader,
		&headers.Email:   cfg.EmailHeader,
		&headers.Name:    cfg.NameHeader,
		&headers.Avatar:  cfg.AvatarHeader,
	} {
		if src != "" {
			*dst = src
		}
	}
	return headers
}

// newScheduler registers the retention purge and, when GeoIP is enabled,
// the database reload.
func newScheduler(a *app, notifications scheduler.NotificationPurger, events scheduler.EventPurger, geo *geoip.Lookup) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.logger)

	retention := scheduler.Retention{
		Notifications: a.cfg.NotificationRetention(),
		Events:        a.cfg.EventRetention(),
	}
	if err := sched.AddJob(scheduler.JobPurge, "Delete notifications and audit events past retention",
		a.cfg.PurgeSchedule, scheduler.PurgeJob(notifications, events, retention, a.logger)); err != nil {
		return nil, err
	}

	if geo.IsEnabled() {
		if err := sched.AddJob(scheduler.JobGeoIPReload, "Reload the GeoIP country database",
			"@daily", scheduler.ReloadJob(geo)); err != nil {
			return nil, err
		}
	}
	return sched, nil
}
