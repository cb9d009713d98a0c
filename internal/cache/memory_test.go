// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source for expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClockedCache(t *testing.T, opts MemoryCacheOptions) (*MemoryCache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemoryCache(opts)
	c.now = clock.Now
	t.Cleanup(func() { _ = c.Close() })
	return c, clock
}

func TestMemoryCache_GetSet(t *testing.T) {
	c, _ := newClockedCache(t, MemoryCacheOptions{DefaultTTL: time.Minute})
	ctx := context.Background()

	_, err := c.Get(ctx, "catalog:product:published:")
	assert.ErrorIs(t, err, ErrCacheMiss)

	value := []byte(`[{"slug":"oak-door"}]`)
	require.NoError(t, c.Set(ctx, "catalog:product:published:", value, 0))
	value[0] = 'X'

	got, err := c.Get(ctx, "catalog:product:published:")
	require.NoError(t, err)
	assert.Equal(t, `[{"slug":"oak-door"}]`, string(got), "stored value is a copy")

	got[0] = 'Y'
	again, err := c.Get(ctx, "catalog:product:published:")
	require.NoError(t, err)
	assert.Equal(t, byte('['), again[0], "returned value is a copy")
}

func TestMemoryCache_Expiry(t *testing.T) {
	c, clock := newClockedCache(t, MemoryCacheOptions{DefaultTTL: time.Minute})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "default", []byte("a"), 0))
	require.NoError(t, c.Set(ctx, "short", []byte("b"), 10*time.Second))

	clock.Advance(10 * time.Second)
	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "default")
	assert.NoError(t, err)

	clock.Advance(50 * time.Second)
	_, err = c.Get(ctx, "default")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, 0, c.Stats().Items)
}

func TestMemoryCache_DeleteByPrefix(t *testing.T) {
	c, _ := newClockedCache(t, MemoryCacheOptions{DefaultTTL: time.Minute})
	ctx := context.Background()

	for _, key := range []string{
		"catalog:product:published:",
		"catalog:product:published:residential",
		"catalog:gallery:published:",
	} {
		require.NoError(t, c.Set(ctx, key, []byte("[]"), 0))
	}

	require.NoError(t, c.DeleteByPrefix(ctx, "catalog:product:"))

	_, err := c.Get(ctx, "catalog:product:published:")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "catalog:product:published:residential")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "catalog:gallery:published:")
	assert.NoError(t, err, "other kinds keep their listings")
}

func TestMemoryCache_MaxSizeEvictsSoonestExpiry(t *testing.T) {
	c, clock := newClockedCache(t, MemoryCacheOptions{DefaultTTL: time.Hour, MaxSize: 2})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "long", []byte("1"), time.Hour))
	require.NoError(t, c.Set(ctx, "short", []byte("2"), time.Minute))
	require.NoError(t, c.Set(ctx, "new", []byte("3"), time.Hour))

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "long")
	assert.NoError(t, err)
	_, err = c.Get(ctx, "new")
	assert.NoError(t, err)

	// Replacing an existing key never evicts.
	require.NoError(t, c.Set(ctx, "long", []byte("4"), time.Hour))
	assert.Equal(t, 2, c.Stats().Items)

	// Expired entries are dropped before a live one is evicted.
	clock.Advance(2 * time.Hour)
	require.NoError(t, c.Set(ctx, "fresh", []byte("5"), time.Hour))
	assert.Equal(t, 1, c.Stats().Items)
}

func TestMemoryCache_Stats(t *testing.T) {
	c, _ := newClockedCache(t, MemoryCacheOptions{DefaultTTL: time.Minute})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	_, _ = c.Get(ctx, "k")
	_, _ = c.Get(ctx, "k")
	_, _ = c.Get(ctx, "k")
	_, _ = c.Get(ctx, "missing")

	st := c.Stats()
	assert.Equal(t, int64(3), st.Hits)
	assert.Equal(t, int64(1), st.Misses)
	assert.Equal(t, 1, st.Items)
	assert.InDelta(t, 75.0, st.HitRate, 0.001)
}

func TestMemoryCache_Closed(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute, CleanupInterval: time.Millisecond})
	ctx := context.Background()

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheClosed)
	assert.ErrorIs(t, c.Set(ctx, "k", nil, 0), ErrCacheClosed)
	assert.ErrorIs(t, c.DeleteByPrefix(ctx, "k"), ErrCacheClosed)
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c, _ := newClockedCache(t, MemoryCacheOptions{DefaultTTL: time.Minute, MaxSize: 50})
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("catalog:product:published:%d", (w*100+i)%70)
				_ = c.Set(ctx, key, []byte("[]"), 0)
				_, _ = c.Get(ctx, key)
				if i%25 == 0 {
					_ = c.DeleteByPrefix(ctx, "catalog:product:")
				}
			}
		}(w)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Stats().Items, 50)
}
