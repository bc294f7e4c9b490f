// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/wneessen/propertyloc/internal/geo"
	"github.com/wneessen/propertyloc/internal/logger"
)

// coordPrecision is the precision used to quantize coordinates (0.0001 degrees ≈ 11 m)
const coordPrecision = 1e-4

// CacheObserver is notified about cache hits and misses.
type CacheObserver interface {
	GeocodeCacheResult(provider string, hit bool)
}

// CachedGeocoder wraps a Geocoder with a Store. Lookups for coordinates that quantize to the same
// cell share one entry. A failing store is logged and bypassed.
type CachedGeocoder struct {
	coder    Geocoder
	store    Store
	logger   *logger.Logger
	observer CacheObserver
	ttlHit   time.Duration
	ttlMiss  time.Duration
}

func NewCachedGeocoder(coder Geocoder, store Store, log *logger.Logger, ttlHit, ttlMiss time.Duration) *CachedGeocoder {
	return &CachedGeocoder{
		coder:   coder,
		store:   store,
		logger:  log,
		ttlHit:  ttlHit,
		ttlMiss: ttlMiss,
	}
}

// SetObserver registers an observer for cache results.
func (c *CachedGeocoder) SetObserver(observer CacheObserver) {
	c.observer = observer
}

func (c *CachedGeocoder) Name() string {
	return "geocoder cache using " + c.coder.Name()
}

// Reverse returns the cached result for the coordinate's cell or asks the wrapped geocoder. A
// cached miss returns ErrNoMatch without a provider request.
func (c *CachedGeocoder) Reverse(ctx context.Context, coord geo.Coordinate) (Address, error) {
	key := newKey(c.coder.Name(), coord.Latitude, coord.Longitude)

	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("geocode cache lookup failed", slog.String("key", key), logger.Err(err))
	}
	c.observe(ok)
	if ok {
		if !entry.Found {
			return Address{}, ErrNoMatch
		}
		addr := entry.Address
		addr.CacheHit = true
		return addr, nil
	}

	addr, err := c.coder.Reverse(ctx, coord)
	switch {
	case errors.Is(err, ErrNoMatch):
		c.save(ctx, key, Entry{Found: false}, c.ttlMiss)
		return Address{}, err
	case err != nil:
		return Address{}, err
	}

	c.save(ctx, key, Entry{Found: true, Address: addr}, c.ttlHit)
	return addr, nil
}

func (c *CachedGeocoder) save(ctx context.Context, key string, entry Entry, ttl time.Duration) {
	if err := c.store.Set(ctx, key, entry, ttl); err != nil {
		c.logger.Warn("geocode cache update failed", slog.String("key", key), logger.Err(err))
	}
}

func (c *CachedGeocoder) observe(hit bool) {
	if c.observer != nil {
		c.observer.GeocodeCacheResult(c.coder.Name(), hit)
	}
}

func quantizeCoord(val float64) int32 {
	return int32(math.Round(val / coordPrecision))
}

func newKey(provider string, lat, lon float64) string {
	return fmt.Sprintf("%s:%d:%d", provider, quantizeCoord(lat), quantizeCoord(lon))
}
