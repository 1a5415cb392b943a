// SPDX-License-Identifier: MIT

// Package cache provides TTL key stores used to remember webhook deliveries
// that were already accepted.
package cache

import (
	"context"
	"sync"
	"time"
)

// Store remembers keys for a limited time.
type Store interface {
	// Add records key for ttl and reports whether it was absent. An existing,
	// unexpired key is left untouched.
	Add(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Contains reports whether key is present and unexpired.
	Contains(ctx context.Context, key string) (bool, error)
	// Delete forgets key.
	Delete(ctx context.Context, key string) error
	// Stats returns store statistics.
	Stats() Stats
	// Close releases resources held by the store.
	Close() error
}

// Stats holds store counters.
type Stats struct {
	Added       int64 // keys recorded by Add
	Duplicates  int64 // Add calls that found the key present
	Evictions   int64 // expired keys removed by the janitor
	CurrentSize int
}

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time // key -> expiry
	stats   Stats
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewMemoryStore returns an in-process Store. A positive cleanupInterval
// starts a janitor removing expired keys until Close.
func NewMemoryStore(cleanupInterval time.Duration) Store {
	return newMemoryStore(cleanupInterval, time.Now)
}

func newMemoryStore(cleanupInterval time.Duration, now func() time.Time) *memoryStore {
	s := &memoryStore{
		entries: make(map[string]time.Time),
		now:     now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go s.janitor(cleanupInterval)
	} else {
		close(s.done)
	}
	return s
}

func (s *memoryStore) Add(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.entries[key]; ok && now.Before(exp) {
		s.stats.Duplicates++
		return false, nil
	}
	s.entries[key] = now.Add(ttl)
	s.stats.Added++
	return true, nil
}

func (s *memoryStore) Contains(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.entries[key]
	return ok && s.now().Before(exp), nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *memoryStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.stats
	stats.CurrentSize = len(s.entries)
	return stats
}

// Close stops the janitor and waits for it to exit.
func (s *memoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
	return nil
}

// deleteExpired removes expired keys and returns how many were removed.
func (s *memoryStore) deleteExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	count := 0
	for key, exp := range s.entries {
		if !now.Before(exp) {
			delete(s.entries, key)
			count++
		}
	}
	s.stats.Evictions += int64(count)
	return count
}

func (s *memoryStore) janitor(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.deleteExpired()
		case <-s.stop:
			return
		}
	}
}
