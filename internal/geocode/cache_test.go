// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/wneessen/propertyloc/internal/geo"
	"github.com/wneessen/propertyloc/internal/logger"
)

const (
	testHitTTL  = 24 * time.Hour
	testMissTTL = 15 * time.Minute
)

var testCoords = geo.Coordinate{Latitude: 6.4298, Longitude: 3.4219, AccuracyMeters: 12}

var testAddress = Address{
	FormattedAddress: "12 Adeola Odeku Street, Victoria Island, Lagos 101241, Nigeria",
	PlaceID:          "ChIJtest",
	Country:          "Nigeria",
	CountryCode:      "ng",
	State:            "Lagos",
	LGA:              "Eti-Osa",
	City:             "Lagos",
	Area:             "Victoria Island",
	Postcode:         "101241",
	Street:           "Adeola Odeku Street",
	HouseNumber:      "12",
}

type mockGeocoder struct {
	calls atomic.Int32
}

func (m *mockGeocoder) Name() string { return "mock" }

func (m *mockGeocoder) Reverse(_ context.Context, coord geo.Coordinate) (Address, error) {
	m.calls.Add(1)
	switch {
	case coord.Latitude == 1 && coord.Longitude == -1:
		return Address{}, errors.New("lookup intentionally failed")
	case coord.Latitude == 2 && coord.Longitude == -2:
		return Address{}, ErrNoMatch
	}
	addr := testAddress
	addr.Latitude = coord.Latitude
	addr.Longitude = coord.Longitude
	return addr, nil
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (Entry, bool, error) {
	return Entry{}, false, errors.New("store down")
}

func (failingStore) Set(context.Context, string, Entry, time.Duration) error {
	return errors.New("store down")
}

type countingObserver struct {
	hits, misses int
}

func (o *countingObserver) GeocodeCacheResult(_ string, hit bool) {
	if hit {
		o.hits++
		return
	}
	o.misses++
}

func testLogger() *logger.Logger {
	return logger.NewLogger(slog.LevelDebug, io.Discard)
}

func TestCachedGeocoder_Name(t *testing.T) {
	coder := NewCachedGeocoder(&mockGeocoder{}, NewMemoryStore(nil), testLogger(), testHitTTL, testMissTTL)
	if coder.Name() != "geocoder cache using mock" {
		t.Errorf("expected geocoder name to be 'geocoder cache using mock', got %q", coder.Name())
	}
}

func TestCachedGeocoder_Reverse(t *testing.T) {
	t.Run("first lookup asks the provider", func(t *testing.T) {
		mock := &mockGeocoder{}
		coder := NewCachedGeocoder(mock, NewMemoryStore(nil), testLogger(), testHitTTL, testMissTTL)
		addr, err := coder.Reverse(t.Context(), testCoords)
		if err != nil {
			t.Fatal(err)
		}
		if addr.CacheHit {
			t.Error("expected cache miss")
		}
		if !strings.EqualFold(addr.FormattedAddress, testAddress.FormattedAddress) {
			t.Errorf("expected address to be %q, got %q", testAddress.FormattedAddress, addr.FormattedAddress)
		}
		if mock.calls.Load() != 1 {
			t.Errorf("expected one provider call, got %d", mock.calls.Load())
		}
	})
	t.Run("close coordinates hit the cache", func(t *testing.T) {
		mock := &mockGeocoder{}
		observer := &countingObserver{}
		coder := NewCachedGeocoder(mock, NewMemoryStore(nil), testLogger(), testHitTTL, testMissTTL)
		coder.SetObserver(observer)
		if _, err := coder.Reverse(t.Context(), testCoords); err != nil {
			t.Fatal(err)
		}
		near := geo.Coordinate{Latitude: testCoords.Latitude + 0.00002, Longitude: testCoords.Longitude - 0.00003}
		addr, err := coder.Reverse(t.Context(), near)
		if err != nil {
			t.Fatal(err)
		}
		if !addr.CacheHit {
			t.Error("expected cached result")
		}
		if mock.calls.Load() != 1 {
			t.Errorf("expected one provider call, got %d", mock.calls.Load())
		}
		if observer.hits != 1 || observer.misses != 1 {
			t.Errorf("expected one hit and one miss, got %d/%d", observer.hits, observer.misses)
		}
	})
	t.Run("distant coordinates miss the cache", func(t *testing.T) {
		mock := &mockGeocoder{}
		coder := NewCachedGeocoder(mock, NewMemoryStore(nil), testLogger(), testHitTTL, testMissTTL)
		if _, err := coder.Reverse(t.Context(), testCoords); err != nil {
			t.Fatal(err)
		}
		far := geo.Coordinate{Latitude: testCoords.Latitude + 0.001, Longitude: testCoords.Longitude}
		addr, err := coder.Reverse(t.Context(), far)
		if err != nil {
			t.Fatal(err)
		}
		if addr.CacheHit {
			t.Error("expected cache miss")
		}
	})
	t.Run("no match is cached with the miss TTL", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		mock := &mockGeocoder{}
		coder := NewCachedGeocoder(mock, NewMemoryStore(clock), testLogger(), testHitTTL, testMissTTL)
		unknown := geo.Coordinate{Latitude: 2, Longitude: -2}
		for range 2 {
			if _, err := coder.Reverse(t.Context(), unknown); !errors.Is(err, ErrNoMatch) {
				t.Fatalf("expected no match, got %v", err)
			}
		}
		if mock.calls.Load() != 1 {
			t.Errorf("expected cached miss, got %d provider calls", mock.calls.Load())
		}
		clock.Advance(testMissTTL + time.Second)
		if _, err := coder.Reverse(t.Context(), unknown); !errors.Is(err, ErrNoMatch) {
			t.Fatalf("expected no match, got %v", err)
		}
		if mock.calls.Load() != 2 {
			t.Errorf("expected expired miss to be looked up again, got %d provider calls", mock.calls.Load())
		}
	})
	t.Run("hits expire after the hit TTL", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		coder := NewCachedGeocoder(&mockGeocoder{}, NewMemoryStore(clock), testLogger(), testHitTTL, testMissTTL)
		if _, err := coder.Reverse(t.Context(), testCoords); err != nil {
			t.Fatal(err)
		}
		clock.Advance(testHitTTL - time.Minute)
		addr, err := coder.Reverse(t.Context(), testCoords)
		if err != nil {
			t.Fatal(err)
		}
		if !addr.CacheHit {
			t.Error("expected cache hit")
		}
		clock.Advance(2 * time.Minute)
		addr, err = coder.Reverse(t.Context(), testCoords)
		if err != nil {
			t.Fatal(err)
		}
		if addr.CacheHit {
			t.Error("expected cache miss")
		}
	})
	t.Run("provider errors are not cached", func(t *testing.T) {
		mock := &mockGeocoder{}
		coder := NewCachedGeocoder(mock, NewMemoryStore(nil), testLogger(), testHitTTL, testMissTTL)
		broken := geo.Coordinate{Latitude: 1, Longitude: -1}
		for range 2 {
			if _, err := coder.Reverse(t.Context(), broken); err == nil {
				t.Fatal("expected an error")
			}
		}
		if mock.calls.Load() != 2 {
			t.Errorf("expected two provider calls, got %d", mock.calls.Load())
		}
	})
	t.Run("failing store is bypassed", func(t *testing.T) {
		coder := NewCachedGeocoder(&mockGeocoder{}, failingStore{}, testLogger(), testHitTTL, testMissTTL)
		addr, err := coder.Reverse(t.Context(), testCoords)
		if err != nil {
			t.Fatal(err)
		}
		if !addr.Usable() {
			t.Error("expected a usable address")
		}
	})
}

func TestMemoryStore_Prune(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewMemoryStore(clock)
	if err := store.Set(t.Context(), "short", Entry{}, time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(t.Context(), "long", Entry{Found: true}, time.Hour); err != nil {
		t.Fatal(err)
	}
	clock.Advance(2 * time.Minute)
	removed, err := store.Prune(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 || store.Len() != 1 {
		t.Errorf("expected one entry to be pruned, removed %d, left %d", removed, store.Len())
	}
	if _, ok, _ := store.Get(t.Context(), "long"); !ok {
		t.Error("expected long lived entry to survive")
	}
}

func TestAddress_Resolve(t *testing.T) {
	resolved := testAddress.Resolve(testCoords)
	if resolved.DisplayText != testAddress.FormattedAddress {
		t.Errorf("unexpected display text: %q", resolved.DisplayText)
	}
	if resolved.Source == nil || *resolved.Source != testCoords {
		t.Error("expected source coordinate to be set")
	}
	if resolved.PlaceID != testAddress.PlaceID {
		t.Errorf("expected place id %q, got %q", testAddress.PlaceID, resolved.PlaceID)
	}
	if (Address{FormattedAddress: "  "}).Usable() {
		t.Error("expected blank address to be unusable")
	}
}
