// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/vitrine/internal/testutil"
)

type listing struct {
	Slug string `json:"slug"`
}

// brokenCache fails every call.
type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection reset")
}

func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection reset")
}

func (brokenCache) DeleteByPrefix(context.Context, string) error {
	return errors.New("connection reset")
}

func (brokenCache) Close() error { return nil }

func TestNamespace_GetOrLoad(t *testing.T) {
	mem := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })
	products := NewNamespace[[]listing](mem, "catalog:product", 0, testutil.TestLoggerSilent())
	ctx := context.Background()

	calls := 0
	load := func() ([]listing, error) {
		calls++
		return []listing{{Slug: "oak-door"}}, nil
	}

	got, err := products.GetOrLoad(ctx, "published:", load)
	require.NoError(t, err)
	assert.Equal(t, []listing{{Slug: "oak-door"}}, got)

	got, err = products.GetOrLoad(ctx, "published:", load)
	require.NoError(t, err)
	assert.Equal(t, []listing{{Slug: "oak-door"}}, got)
	assert.Equal(t, 1, calls, "second read is served from cache")

	raw, err := mem.Get(ctx, "catalog:product:published:")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"slug":"oak-door"}]`, string(raw))
}

func TestNamespace_LoadErrorIsNotCached(t *testing.T) {
	mem := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })
	products := NewNamespace[[]listing](mem, "catalog:product", 0, testutil.TestLoggerSilent())
	ctx := context.Background()

	boom := errors.New("database locked")
	_, err := products.GetOrLoad(ctx, "published:", func() ([]listing, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	_, err = mem.Get(ctx, "catalog:product:published:")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestNamespace_UndecodableEntryIsReloaded(t *testing.T) {
	mem := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })
	products := NewNamespace[[]listing](mem, "catalog:product", 0, testutil.TestLoggerSilent())
	ctx := context.Background()

	require.NoError(t, mem.Set(ctx, "catalog:product:published:", []byte("not json"), 0))

	got, err := products.GetOrLoad(ctx, "published:", func() ([]listing, error) {
		return []listing{{Slug: "fresh"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []listing{{Slug: "fresh"}}, got)
}

func TestNamespace_Invalidate(t *testing.T) {
	mem := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })
	logger := testutil.TestLoggerSilent()
	products := NewNamespace[[]listing](mem, "catalog:product", 0, logger)
	gallery := NewNamespace[[]listing](mem, "catalog:gallery", 0, logger)
	ctx := context.Background()

	load := func() ([]listing, error) { return []listing{}, nil }
	for _, key := range []string{"published:", "published:residential"} {
		_, err := products.GetOrLoad(ctx, key, load)
		require.NoError(t, err)
	}
	_, err := gallery.GetOrLoad(ctx, "published:", load)
	require.NoError(t, err)
	require.Equal(t, 3, mem.Stats().Items)

	require.NoError(t, products.Invalidate(ctx))

	_, err = mem.Get(ctx, products.Key("published:residential"))
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = mem.Get(ctx, gallery.Key("published:"))
	assert.NoError(t, err)
}

func TestNamespace_BrokenCacheFallsBackToLoader(t *testing.T) {
	products := NewNamespace[[]listing](brokenCache{}, "catalog:product", 0, testutil.TestLoggerSilent())
	ctx := context.Background()

	got, err := products.GetOrLoad(ctx, "published:", func() ([]listing, error) {
		return []listing{{Slug: "oak-door"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []listing{{Slug: "oak-door"}}, got)

	assert.Error(t, products.Invalidate(ctx))
}
