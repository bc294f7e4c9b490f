// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geolocation

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"regexp"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/wneessen/propertyloc/internal/geo"
	"github.com/wneessen/propertyloc/internal/logger"
)

var sixDecimals = regexp.MustCompile(`^-?\d+\.\d{6}, -?\d+\.\d{6}$`)

type fakeSource struct {
	name  string
	high  bool
	coord geo.Coordinate
	err   error
	block bool
	calls atomic.Int32
	opts  atomic.Pointer[PositionOptions]
}

func (f *fakeSource) Name() string       { return f.name }
func (f *fakeSource) HighAccuracy() bool { return f.high }

func (f *fakeSource) CurrentPosition(ctx context.Context, opts PositionOptions) (geo.Coordinate, error) {
	f.calls.Add(1)
	f.opts.Store(&opts)
	if f.block {
		<-ctx.Done()
		return geo.Coordinate{}, ctx.Err()
	}
	return f.coord, f.err
}

func testLogger() *logger.Logger {
	return logger.NewLogger(slog.LevelDebug, io.Discard)
}

func TestProfileFor(t *testing.T) {
	tests := []struct {
		name    string
		device  geo.DeviceClass
		high    bool
		timeout time.Duration
		maxAge  time.Duration
		advise  bool
	}{
		{"mobile", geo.Mobile, true, 10 * time.Second, 0, true},
		{"desktop", geo.Desktop, false, 5 * time.Second, 5 * time.Minute, false},
		{"unknown falls back to desktop", geo.DeviceClass(42), false, 5 * time.Second, 5 * time.Minute, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			profile := ProfileFor(tc.device)
			if profile.Options.EnableHighAccuracy != tc.high {
				t.Errorf("expected high accuracy to be %t, got %t", tc.high, profile.Options.EnableHighAccuracy)
			}
			if profile.Options.Timeout != tc.timeout {
				t.Errorf("expected timeout to be %s, got %s", tc.timeout, profile.Options.Timeout)
			}
			if profile.Options.MaximumAge != tc.maxAge {
				t.Errorf("expected maximum age to be %s, got %s", tc.maxAge, profile.Options.MaximumAge)
			}
			if profile.AdviseLowAccuracy != tc.advise {
				t.Errorf("expected low accuracy advisory to be %t, got %t", tc.advise, profile.AdviseLowAccuracy)
			}
		})
	}
}

func TestAcquirer_Acquire(t *testing.T) {
	lagos := geo.Coordinate{Latitude: 6.4478123, Longitude: 3.4723611, AccuracyMeters: 25}

	t.Run("no sources is unsupported", func(t *testing.T) {
		acquirer := New(testLogger(), nil)
		_, err := acquirer.Acquire(t.Context(), geo.Mobile)
		if KindOf(err) != Unsupported {
			t.Fatalf("expected unsupported error, got %v", err)
		}
	})
	t.Run("success formats the display text with six decimals", func(t *testing.T) {
		src := &fakeSource{name: "gps", high: true, coord: lagos}
		acquirer := New(testLogger(), []PositionSource{src})
		acq, err := acquirer.Acquire(t.Context(), geo.Mobile)
		if err != nil {
			t.Fatalf("failed to acquire position: %s", err)
		}
		if acq.Address.DisplayText != "6.447812, 3.472361" {
			t.Errorf("unexpected display text: %q", acq.Address.DisplayText)
		}
		if !sixDecimals.MatchString(acq.Address.DisplayText) {
			t.Errorf("display text %q does not have six decimals", acq.Address.DisplayText)
		}
		if acq.Address.Source == nil || acq.Address.Source.Latitude != lagos.Latitude {
			t.Error("expected source coordinate to be set")
		}
		if acq.Coordinate.CapturedAt.IsZero() {
			t.Error("expected capture time to be set")
		}
		if acq.Source != "gps" {
			t.Errorf("expected source to be gps, got %s", acq.Source)
		}
		if acq.LowAccuracy {
			t.Error("expected no low accuracy advisory")
		}
	})
	t.Run("the device profile is passed to the source", func(t *testing.T) {
		for _, device := range []geo.DeviceClass{geo.Mobile, geo.Desktop} {
			src := &fakeSource{name: "any", high: device == geo.Mobile, coord: lagos}
			acquirer := New(testLogger(), []PositionSource{src})
			if _, err := acquirer.Acquire(t.Context(), device); err != nil {
				t.Fatalf("failed to acquire position: %s", err)
			}
			if got := src.opts.Load(); got == nil || *got != ProfileFor(device).Options {
				t.Errorf("%s: expected options %+v, got %+v", device, ProfileFor(device).Options, got)
			}
		}
	})
	t.Run("mobile fix worse than 100m sets the advisory", func(t *testing.T) {
		coarse := lagos
		coarse.AccuracyMeters = 150
		acquirer := New(testLogger(), []PositionSource{&fakeSource{name: "gps", high: true, coord: coarse}})
		acq, err := acquirer.Acquire(t.Context(), geo.Mobile)
		if err != nil {
			t.Fatalf("failed to acquire position: %s", err)
		}
		if !acq.LowAccuracy {
			t.Error("expected low accuracy advisory")
		}
		if acq.Address.Empty() {
			t.Error("expected display text to be set")
		}
	})
	t.Run("desktop fix worse than 100m has no advisory", func(t *testing.T) {
		coarse := lagos
		coarse.AccuracyMeters = 5000
		acquirer := New(testLogger(), []PositionSource{&fakeSource{name: "geoip", coord: coarse}})
		acq, err := acquirer.Acquire(t.Context(), geo.Desktop)
		if err != nil {
			t.Fatalf("failed to acquire position: %s", err)
		}
		if acq.LowAccuracy {
			t.Error("expected no low accuracy advisory on desktop")
		}
	})
	t.Run("high accuracy sources are preferred on mobile", func(t *testing.T) {
		gps := &fakeSource{name: "gps", high: true, coord: lagos}
		network := &fakeSource{name: "geoip", coord: lagos}
		acquirer := New(testLogger(), []PositionSource{gps, network})
		if _, err := acquirer.Acquire(t.Context(), geo.Mobile); err != nil {
			t.Fatalf("failed to acquire position: %s", err)
		}
		if gps.calls.Load() != 1 || network.calls.Load() != 0 {
			t.Errorf("expected only the gps source to be queried, got gps=%d network=%d",
				gps.calls.Load(), network.calls.Load())
		}
	})
	t.Run("falls back to the other class if the preferred one is empty", func(t *testing.T) {
		network := &fakeSource{name: "geoip", coord: lagos}
		acquirer := New(testLogger(), []PositionSource{network})
		acq, err := acquirer.Acquire(t.Context(), geo.Mobile)
		if err != nil {
			t.Fatalf("failed to acquire position: %s", err)
		}
		if acq.Source != "geoip" {
			t.Errorf("expected geoip source, got %s", acq.Source)
		}
	})
	t.Run("the most accurate fix wins", func(t *testing.T) {
		coarse := lagos
		coarse.AccuracyMeters = 3000
		fine := lagos
		fine.AccuracyMeters = 40
		acquirer := New(testLogger(), []PositionSource{
			&fakeSource{name: "geoip", coord: coarse},
			&fakeSource{name: "ichnaea", coord: fine},
			&fakeSource{name: "broken", err: errors.New("boom")},
		})
		acq, err := acquirer.Acquire(t.Context(), geo.Desktop)
		if err != nil {
			t.Fatalf("failed to acquire position: %s", err)
		}
		if acq.Source != "ichnaea" {
			t.Errorf("expected ichnaea fix to win, got %s", acq.Source)
		}
	})
	t.Run("invalid coordinates are treated as unavailable", func(t *testing.T) {
		acquirer := New(testLogger(), []PositionSource{
			&fakeSource{name: "broken", coord: geo.Coordinate{Latitude: 120, Longitude: 3}},
		})
		_, err := acquirer.Acquire(t.Context(), geo.Desktop)
		if KindOf(err) != PositionUnavailable {
			t.Errorf("expected position unavailable, got %v", err)
		}
	})
	t.Run("permission denied takes precedence", func(t *testing.T) {
		acquirer := New(testLogger(), []PositionSource{
			&fakeSource{name: "geoclue", err: ErrPermissionDenied},
			&fakeSource{name: "file", err: fs.ErrPermission},
			&fakeSource{name: "geoip", err: ErrPositionUnavailable},
		})
		_, err := acquirer.Acquire(t.Context(), geo.Desktop)
		if KindOf(err) != PermissionDenied {
			t.Errorf("expected permission denied, got %v", err)
		}
		if !errors.Is(err, ErrPermissionDenied) {
			t.Error("expected the source error to be wrapped")
		}
	})
	t.Run("blocking sources time out with the profile timeout", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			acquirer := New(testLogger(), []PositionSource{&fakeSource{name: "gps", high: true, block: true}})
			start := time.Now()
			_, err := acquirer.Acquire(t.Context(), geo.Mobile)
			if KindOf(err) != Timeout {
				t.Errorf("expected timeout, got %v", err)
			}
			if elapsed := time.Since(start); elapsed != 10*time.Second {
				t.Errorf("expected acquisition to take 10s, took %s", elapsed)
			}
		})
	})
}

func TestAcquirer_CachedFix(t *testing.T) {
	lagos := geo.Coordinate{Latitude: 6.4478123, Longitude: 3.4723611, AccuracyMeters: 2500}

	t.Run("desktop reuses a fix younger than five minutes", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		src := &fakeSource{name: "geoip", coord: lagos}
		acquirer := New(testLogger(), []PositionSource{src}, WithClock(clock))
		if _, err := acquirer.Acquire(t.Context(), geo.Desktop); err != nil {
			t.Fatalf("failed to acquire position: %s", err)
		}
		clock.Advance(4 * time.Minute)
		acq, err := acquirer.Acquire(t.Context(), geo.Desktop)
		if err != nil {
			t.Fatalf("failed to acquire position: %s", err)
		}
		if !acq.Cached {
			t.Error("expected cached fix to be reused")
		}
		if src.calls.Load() != 1 {
			t.Errorf("expected source to be queried once, got %d", src.calls.Load())
		}
	})
	t.Run("desktop refreshes a fix older than five minutes", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		src := &fakeSource{name: "geoip", coord: lagos}
		acquirer := New(testLogger(), []PositionSource{src}, WithClock(clock))
		if _, err := acquirer.Acquire(t.Context(), geo.Desktop); err != nil {
			t.Fatalf("failed to acquire position: %s", err)
		}
		clock.Advance(5*time.Minute + time.Second)
		acq, err := acquirer.Acquire(t.Context(), geo.Desktop)
		if err != nil {
			t.Fatalf("failed to acquire position: %s", err)
		}
		if acq.Cached {
			t.Error("expected a fresh fix")
		}
		if src.calls.Load() != 2 {
			t.Errorf("expected source to be queried twice, got %d", src.calls.Load())
		}
	})
	t.Run("forget drops the cached fix", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		src := &fakeSource{name: "geoip", coord: lagos}
		acquirer := New(testLogger(), []PositionSource{src}, WithClock(clock))
		if _, err := acquirer.Acquire(t.Context(), geo.Desktop); err != nil {
			t.Fatalf("failed to acquire position: %s", err)
		}
		acquirer.Forget()
		acq, err := acquirer.Acquire(t.Context(), geo.Desktop)
		if err != nil {
			t.Fatalf("failed to acquire position: %s", err)
		}
		if acq.Cached {
			t.Error("expected a fresh fix after forget")
		}
	})
	t.Run("mobile never reuses a fix", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		src := &fakeSource{name: "gps", high: true, coord: lagos}
		acquirer := New(testLogger(), []PositionSource{src}, WithClock(clock))
		for range 3 {
			acq, err := acquirer.Acquire(t.Context(), geo.Mobile)
			if err != nil {
				t.Fatalf("failed to acquire position: %s", err)
			}
			if acq.Cached {
				t.Error("expected mobile to never reuse a fix")
			}
		}
		if src.calls.Load() != 3 {
			t.Errorf("expected source to be queried three times, got %d", src.calls.Load())
		}
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind ErrorKind
	}{
		{"permission sentinel", ErrPermissionDenied, PermissionDenied},
		{"fs permission", fs.ErrPermission, PermissionDenied},
		{"deadline", context.DeadlineExceeded, Timeout},
		{"typed error", &Error{Kind: Unsupported}, Unsupported},
		{"anything else", errors.New("no fix"), PositionUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.kind {
				t.Errorf("expected %s, got %s", tc.kind, got)
			}
		})
	}
	t.Run("error kind strings", func(t *testing.T) {
		if PermissionDenied.String() != "permission_denied" {
			t.Errorf("unexpected string: %s", PermissionDenied)
		}
		if ErrorKind(0).String() != "unknown" {
			t.Errorf("unexpected string: %s", ErrorKind(0))
		}
	})
}
