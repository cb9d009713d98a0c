// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

// Namespace stores JSON-encoded values of one type under a shared key
// prefix. Cache failures never fail a read: the loader result is returned
// and the failure is logged.
type Namespace[T any] struct {
	cache  Cacher
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// NewNamespace scopes c to keys starting with prefix+":". A zero ttl uses
// the cache default.
func NewNamespace[T any](c Cacher, prefix string, ttl time.Duration, logger *slog.Logger) *Namespace[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Namespace[T]{
		cache:  c,
		prefix: prefix + ":",
		ttl:    ttl,
		logger: logger,
	}
}

// Key returns the full cache key for key.
func (n *Namespace[T]) Key(key string) string {
	return n.prefix + key
}

// GetOrLoad returns the cached value for key, or calls load and caches its
// result. Load errors are returned and nothing is cached.
func (n *Namespace[T]) GetOrLoad(ctx context.Context, key string, load func() (T, error)) (T, error) {
	full := n.Key(key)

	data, err := n.cache.Get(ctx, full)
	switch {
	case err == nil:
		var value T
		if err := json.Unmarshal(data, &value); err == nil {
			return value, nil
		}
		n.logger.Warn("discarding undecodable cache entry", "key", full)
	case !errors.Is(err, ErrCacheMiss):
		n.logger.Warn("cache read failed", "key", full, "error", err)
	}

	value, err := load()
	if err != nil {
		return value, err
	}

	data, err = json.Marshal(value)
	if err == nil {
		err = n.cache.Set(ctx, full, data, n.ttl)
	}
	if err != nil {
		n.logger.Warn("cache write failed", "key", full, "error", err)
	}
	return value, nil
}

// Invalidate drops every entry of the namespace.
func (n *Namespace[T]) Invalidate(ctx context.Context) error {
	return n.cache.DeleteByPrefix(ctx, n.prefix)
}
