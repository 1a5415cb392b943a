// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewRedisStoreFromClient(client, "", zerolog.Nop())
}

func TestRedisStore_Add(t *testing.T) {
	mr, s := setupMiniRedis(t)
	ctx := context.Background()

	added, err := s.Add(ctx, "sig-1", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.Add(ctx, "sig-1", 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, added)

	assert.True(t, mr.Exists(DefaultRedisPrefix+"sig-1"))
	assert.Equal(t, 5*time.Minute, mr.TTL(DefaultRedisPrefix+"sig-1"))

	stats := s.Stats()
	assert.Equal(t, int64(1), stats.Added)
	assert.Equal(t, int64(1), stats.Duplicates)
}

func TestRedisStore_Expiration(t *testing.T) {
	mr, s := setupMiniRedis(t)
	ctx := context.Background()

	_, err := s.Add(ctx, "k", time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	ok, err := s.Contains(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	added, err := s.Add(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, added)
}

func TestRedisStore_Delete(t *testing.T) {
	_, s := setupMiniRedis(t)
	ctx := context.Background()

	_, _ = s.Add(ctx, "k", time.Minute)
	require.NoError(t, s.Delete(ctx, "k"))
	ok, err := s.Contains(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_ConnectionError(t *testing.T) {
	mr, s := setupMiniRedis(t)
	mr.Close()

	_, err := s.Add(context.Background(), "k", time.Minute)
	assert.Error(t, err)
}

func TestNewRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedisStore(context.Background(), RedisConfig{Addr: mr.Addr(), Prefix: "test:"}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.HealthCheck(context.Background()))

	_, err = s.Add(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:k"))
	require.NoError(t, s.Close())
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(context.Background(), RedisConfig{Addr: addr}, zerolog.Nop())
	assert.Error(t, err)
}
