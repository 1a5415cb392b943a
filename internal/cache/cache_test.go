// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

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
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStore_Add(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)
	defer func() { _ = s.Close() }()

	added, err := s.Add(ctx, "sig-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.Add(ctx, "sig-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, added, "second add of the same key")

	ok, err := s.Contains(ctx, "sig-1")
	require.NoError(t, err)
	assert.True(t, ok)

	stats := s.Stats()
	assert.Equal(t, int64(1), stats.Added)
	assert.Equal(t, int64(1), stats.Duplicates)
	assert.Equal(t, 1, stats.CurrentSize)
}

func TestMemoryStore_Expiration(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	s := newMemoryStore(0, clock.Now)

	added, _ := s.Add(ctx, "k", 5*time.Minute)
	require.True(t, added)

	clock.Advance(5 * time.Minute)
	ok, _ := s.Contains(ctx, "k")
	assert.False(t, ok, "expired at ttl")

	added, _ = s.Add(ctx, "k", 5*time.Minute)
	assert.True(t, added, "expired key can be added again")
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	_, _ = s.Add(ctx, "k", time.Minute)
	require.NoError(t, s.Delete(ctx, "k"))
	ok, _ := s.Contains(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	s := newMemoryStore(0, clock.Now)

	_, _ = s.Add(ctx, "short-1", time.Second)
	_, _ = s.Add(ctx, "short-2", time.Second)
	_, _ = s.Add(ctx, "long", time.Hour)
	clock.Advance(time.Minute)

	assert.Equal(t, 2, s.deleteExpired())
	stats := s.Stats()
	assert.Equal(t, 1, stats.CurrentSize)
	assert.Equal(t, int64(2), stats.Evictions)
}

func TestMemoryStore_Janitor(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx := context.Background()
	s := NewMemoryStore(20 * time.Millisecond)

	_, _ = s.Add(ctx, "short", 10*time.Millisecond)
	_, _ = s.Add(ctx, "long", time.Hour)

	assert.Eventually(t, func() bool { return s.Stats().CurrentSize == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "close is idempotent")
}

func TestMemoryStore_ConcurrentAddSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.Add(ctx, "same", time.Minute); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func BenchmarkMemoryStore_Add(b *testing.B) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Add(ctx, "key", 5*time.Minute)
	}
}
