// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package property

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// MemoryRepository keeps locations in memory. It is used when no database is configured.
type MemoryRepository struct {
	clock clockwork.Clock

	mu        sync.RWMutex
	locations map[uuid.UUID]Location
}

func NewMemoryRepository(clock clockwork.Clock) *MemoryRepository {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryRepository{
		clock:     clock,
		locations: make(map[uuid.UUID]Location),
	}
}

func (r *MemoryRepository) SaveLocation(_ context.Context, loc Location) (Location, error) {
	if err := loc.Validate(); err != nil {
		return Location{}, err
	}
	loc.UpdatedAt = r.clock.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.locations[loc.PropertyID] = loc
	return loc, nil
}

func (r *MemoryRepository) Location(_ context.Context, id uuid.UUID) (Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loc, ok := r.locations[id]
	if !ok {
		return Location{}, ErrNotFound
	}
	return loc, nil
}

func (r *MemoryRepository) Ping(context.Context) error {
	return nil
}
