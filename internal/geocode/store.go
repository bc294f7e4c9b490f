// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Store persists geocoding results for a limited time. Misses are stored as well, as an entry
// with Found set to false.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error
}

// Entry is a cached lookup result.
type Entry struct {
	Found   bool    `json:"found"`
	Address Address `json:"address"`
}

type memoryEntry struct {
	Entry
	Expiry time.Time
}

// MemoryStore is an in-process Store. Expired entries are no longer returned and are removed by
// Prune.
type MemoryStore struct {
	clock clockwork.Clock

	mu    sync.RWMutex
	cache map[string]memoryEntry
}

func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		clock: clock,
		cache: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.cache[key]
	if !ok || !s.clock.Now().Before(entry.Expiry) {
		return Entry{}, false, nil
	}
	return entry.Entry, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, entry Entry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = memoryEntry{Entry: entry, Expiry: s.clock.Now().Add(ttl)}
	return nil
}

// Prune removes all expired entries and returns how many were removed.
func (s *MemoryStore) Prune(_ context.Context) (int, error) {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, entry := range s.cache {
		if !now.Before(entry.Expiry) {
			delete(s.cache, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of entries, including expired ones not yet pruned.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}
