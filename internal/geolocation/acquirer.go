// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geolocation

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/wneessen/propertyloc/internal/geo"
	"github.com/wneessen/propertyloc/internal/logger"
)

// PositionSource is a platform facility able to determine the current position.
type PositionSource interface {
	Name() string
	// HighAccuracy reports whether the source is satellite based rather than network based.
	HighAccuracy() bool
	CurrentPosition(ctx context.Context, opts PositionOptions) (geo.Coordinate, error)
}

// Acquisition is the outcome of a successful Acquire call.
type Acquisition struct {
	Address    geo.ResolvedAddress `json:"address"`
	Coordinate geo.Coordinate      `json:"coordinate"`
	Device     geo.DeviceClass     `json:"device"`
	Source     string              `json:"source"`
	// Cached is set if a previous fix was reused because it was younger than the profile's MaximumAge.
	Cached bool `json:"cached"`
	// LowAccuracy is informational only: the fix is usable, but worse than LowAccuracyThreshold.
	LowAccuracy bool `json:"low_accuracy"`
}

// Acquirer acquires the current position with a configuration that depends on the device class.
// It does not deduplicate concurrent calls, callers guard against re-entrant acquisitions.
type Acquirer struct {
	sources []PositionSource
	logger  *logger.Logger
	clock   clockwork.Clock

	mu         sync.RWMutex
	last       geo.Coordinate
	lastSource string
	haveLast   bool
}

// Option configures an Acquirer.
type Option func(*Acquirer)

// WithClock replaces the clock used to timestamp and age fixes.
func WithClock(clock clockwork.Clock) Option {
	return func(a *Acquirer) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// New returns an Acquirer that uses the given sources.
func New(log *logger.Logger, sources []PositionSource, opts ...Option) *Acquirer {
	acquirer := &Acquirer{
		sources: sources,
		logger:  log,
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(acquirer)
	}
	return acquirer
}

// Forget drops the cached fix, so the next acquisition queries the sources again.
func (a *Acquirer) Forget() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last = geo.Coordinate{}
	a.lastSource = ""
	a.haveLast = false
}

// Supported reports whether any position source is available.
func (a *Acquirer) Supported() bool {
	return len(a.sources) > 0
}

// Acquire determines the current position for the given device class. On failure the returned
// error is an *Error.
func (a *Acquirer) Acquire(ctx context.Context, device geo.DeviceClass) (Acquisition, error) {
	profile := ProfileFor(device)
	if !a.Supported() {
		return Acquisition{}, &Error{Kind: Unsupported}
	}

	if profile.Options.MaximumAge > 0 {
		if coord, source, ok := a.cachedFix(profile.Options); ok {
			a.logger.Debug("reusing cached position fix", slog.String("device", device.String()),
				slog.String("source", source), slog.Duration("age", coord.Age(a.clock.Now())))
			return a.acquisition(profile, coord, source, true), nil
		}
	}

	coord, source, err := a.locate(ctx, profile.Options)
	if err != nil {
		a.logger.Debug("position acquisition failed", slog.String("device", device.String()), logger.Err(err))
		return Acquisition{}, err
	}
	if coord.CapturedAt.IsZero() {
		coord.CapturedAt = a.clock.Now()
	}

	a.mu.Lock()
	a.last = coord
	a.lastSource = source
	a.haveLast = true
	a.mu.Unlock()

	return a.acquisition(profile, coord, source, false), nil
}

func (a *Acquirer) acquisition(profile Profile, coord geo.Coordinate, source string, cached bool) Acquisition {
	return Acquisition{
		Address:     geo.CoordinateAddress(coord),
		Coordinate:  coord,
		Device:      profile.Device,
		Source:      source,
		Cached:      cached,
		LowAccuracy: profile.AdviseLowAccuracy && coord.AccuracyMeters > LowAccuracyThreshold,
	}
}

func (a *Acquirer) cachedFix(opts PositionOptions) (geo.Coordinate, string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.haveLast || a.last.Age(a.clock.Now()) > opts.MaximumAge {
		return geo.Coordinate{}, "", false
	}
	return a.last, a.lastSource, true
}

type sourceResult struct {
	coord geo.Coordinate
	err   error
}

// locate queries all sources matching the requested accuracy concurrently within the timeout and
// returns the most accurate valid fix.
func (a *Acquirer) locate(ctx context.Context, opts PositionOptions) (geo.Coordinate, string, error) {
	sources := a.selectSources(opts.EnableHighAccuracy)
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	results := make([]sourceResult, len(sources))
	var group errgroup.Group
	for i, src := range sources {
		group.Go(func() error {
			coord, err := src.CurrentPosition(ctx, opts)
			if err == nil && !coord.Valid() {
				err = ErrPositionUnavailable
			}
			results[i] = sourceResult{coord: coord, err: err}
			return nil
		})
	}
	_ = group.Wait()

	var best geo.Coordinate
	var bestSource string
	var errs []error
	found := false
	for i, res := range results {
		if res.err != nil {
			errs = append(errs, res.err)
			a.logger.Debug("position source failed", slog.String("source", sources[i].Name()),
				logger.Err(res.err))
			continue
		}
		if !found || res.coord.MoreAccurateThan(best) {
			best, bestSource, found = res.coord, sources[i].Name(), true
		}
	}
	if found {
		return best, bestSource, nil
	}

	return geo.Coordinate{}, "", &Error{Kind: classifyAll(ctx, errs), Err: errors.Join(errs...)}
}

// selectSources returns the sources matching the requested accuracy class, or all sources if no
// source of that class is configured.
func (a *Acquirer) selectSources(highAccuracy bool) []PositionSource {
	selected := make([]PositionSource, 0, len(a.sources))
	for _, src := range a.sources {
		if src.HighAccuracy() == highAccuracy {
			selected = append(selected, src)
		}
	}
	if len(selected) == 0 {
		return a.sources
	}
	return selected
}

// classifyAll derives the overall ErrorKind from the individual source failures. A denied
// permission takes precedence over a timeout, which takes precedence over an unavailable position.
func classifyAll(ctx context.Context, errs []error) ErrorKind {
	kind := PositionUnavailable
	for _, err := range errs {
		switch Classify(err) {
		case PermissionDenied:
			return PermissionDenied
		case Timeout:
			kind = Timeout
		}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		kind = Timeout
	}
	return kind
}
