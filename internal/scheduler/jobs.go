// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// NotificationPurger deletes notifications older than a given age.
type NotificationPurger interface {
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// EventPurger deletes audit events older than a given age.
type EventPurger interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Reloader reopens an on-disk database.
type Reloader interface {
	Reload() error
}

// Retention holds the maximum age of purged records.
type Retention struct {
	Notifications time.Duration
	Events        time.Duration
}

// PurgeResult counts the rows a purge removed.
type PurgeResult struct {
	Notifications int64
	Events        int64
}

// Purge deletes notifications and audit events past their retention. Both
// purges are attempted; their errors are joined. Running it twice is harmless.
func Purge(ctx context.Context, notifications NotificationPurger, events EventPurger, r Retention) (PurgeResult, error) {
	var (
		res  PurgeResult
		errs []error
	)

	n, err := notifications.PurgeOlderThan(ctx, r.Notifications)
	if err != nil {
		errs = append(errs, fmt.Errorf("purging notifications: %w", err))
	}
	res.Notifications = n

	e, err := events.DeleteOldEvents(ctx, r.Events)
	if err != nil {
		errs = append(errs, fmt.Errorf("purging events: %w", err))
	}
	res.Events = e

	return res, errors.Join(errs...)
}

// PurgeJob returns a JobFunc running Purge and logging what it removed.
func PurgeJob(notifications NotificationPurger, events EventPurger, r Retention, logger *slog.Logger) JobFunc {
	return func(ctx context.Context) error {
		res, err := Purge(ctx, notifications, events, r)
		if res.Notifications > 0 || res.Events > 0 {
			logger.Info("retention purge completed",
				"notifications", res.Notifications,
				"events", res.Events,
			)
		}
		return err
	}
}

// ReloadJob returns a JobFunc reloading the given database.
func ReloadJob(r Reloader) JobFunc {
	return func(context.Context) error {
		return r.Reload()
	}
}
