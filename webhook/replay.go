// SPDX-License-Identifier: MIT

package webhook

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ManuGH/flowcatalyst/internal/cache"
)

// ReplayGuard remembers accepted signatures so a captured delivery cannot
// be submitted twice within the validity window.
type ReplayGuard interface {
	// Add records key for ttl and reports whether it was new.
	Add(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Delete forgets key so the delivery can be accepted again.
	Delete(ctx context.Context, key string) error
	Close() error
}

// NewMemoryReplayGuard returns a process-local guard. Expired signatures are
// swept every cleanupInterval until Close.
func NewMemoryReplayGuard(cleanupInterval time.Duration) ReplayGuard {
	return cache.NewMemoryStore(cleanupInterval)
}

// NewRedisReplayGuard returns a guard shared through Redis with SET NX. Keys
// are namespaced by prefix. Close leaves client open.
func NewRedisReplayGuard(client *redis.Client, prefix string, logger zerolog.Logger) ReplayGuard {
	return cache.NewRedisStoreFromClient(client, prefix, logger)
}
