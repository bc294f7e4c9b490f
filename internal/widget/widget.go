// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package widget implements the address input field of the listing flow. The field accepts typed
// text, the current position of the device, a place picked from autocomplete suggestions, or a
// point picked on a map.
package widget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/mattn/go-runewidth"

	"github.com/wneessen/propertyloc/internal/geo"
	"github.com/wneessen/propertyloc/internal/geocode"
	"github.com/wneessen/propertyloc/internal/geolocation"
	"github.com/wneessen/propertyloc/internal/i18n"
	"github.com/wneessen/propertyloc/internal/logger"
	"github.com/wneessen/propertyloc/internal/places"
)

// MarkerTitleWidth is the maximum display width of a map marker title.
const MarkerTitleWidth = 32

// State is the state of the widget.
type State int

const (
	Idle State = iota
	AcquiringLocation
	Ready
)

func (s State) String() string {
	switch s {
	case AcquiringLocation:
		return "acquiring_location"
	case Ready:
		return "ready"
	default:
		return "idle"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Locator acquires the current position of a device.
type Locator interface {
	Acquire(ctx context.Context, device geo.DeviceClass) (geolocation.Acquisition, error)
}

// PlaceFinder serves autocomplete suggestions and place selection.
type PlaceFinder interface {
	Suggest(ctx context.Context, input string, token places.SessionToken) ([]places.Prediction, error)
	Select(ctx context.Context, placeID string, token places.SessionToken) (places.Candidate, error)
}

// ChangeFunc is called once per user action that produced a non-empty address. Raw of the address
// holds the place details or geocoded address, if any.
type ChangeFunc func(addr geo.ResolvedAddress)

// Marker is the map marker of the current position.
type Marker struct {
	Position geo.Coordinate `json:"position"`
	Title    string         `json:"title"`
	MapURL   string         `json:"map_url"`
}

// Suggestions is the answer to an autocomplete request. While the places provider loads,
// Loading is set and the user can keep typing.
type Suggestions struct {
	Loading     bool                `json:"loading"`
	Message     string              `json:"message,omitempty"`
	Predictions []places.Prediction `json:"predictions"`
}

// View is a snapshot of the widget.
type View struct {
	State       State      `json:"state"`
	Text        string     `json:"text"`
	Loading     bool       `json:"loading"`
	Advisories  []Advisory `json:"advisories,omitempty"`
	Marker      *Marker    `json:"marker,omitempty"`
	CapturedAgo string     `json:"captured_ago,omitempty"`
}

// Options configures a Widget. Locator, Geocoder and Places are optional, without them the
// respective feature is unavailable.
type Options struct {
	Device     geo.DeviceClass
	ShowMap    bool
	Zoom       int
	Session    places.SessionToken
	Locator    Locator
	Geocoder   geocode.Geocoder
	Places     PlaceFinder
	Translator *i18n.Translator
	Logger     *logger.Logger
	Clock      clockwork.Clock
	OnChange   ChangeFunc
}

// Widget is the address input field. It is safe for concurrent use.
type Widget struct {
	opts Options
	wg   sync.WaitGroup

	mu          sync.Mutex
	state       State
	text        string
	loading     bool
	advisories  []Advisory
	marker      *Marker
	capturedAgo string
	session     places.SessionToken
}

func New(opts Options) (*Widget, error) {
	if opts.Translator == nil {
		return nil, errors.New("translator is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Zoom < 1 {
		opts.Zoom = geo.DefaultZoom
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	session := opts.Session
	if session == (places.SessionToken{}) {
		session = places.NewSessionToken()
	}
	return &Widget{opts: opts, session: session}, nil
}

// View returns a snapshot of the widget.
func (w *Widget) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	view := View{
		State:       w.state,
		Text:        w.text,
		Loading:     w.loading,
		Advisories:  slices.Clone(w.advisories),
		CapturedAgo: w.capturedAgo,
	}
	if w.marker != nil {
		marker := *w.marker
		view.Marker = &marker
	}
	return view
}

// Session returns the current autocomplete session token.
func (w *Widget) Session() places.SessionToken {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session
}

// Wait blocks until a pending acquisition has completed.
func (w *Widget) Wait() {
	w.wg.Wait()
}

// Dismiss removes the advisory with the given code.
func (w *Widget) Dismiss(code string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.advisories = slices.DeleteFunc(w.advisories, func(a Advisory) bool {
		return a.Code == code && a.Dismissible
	})
}

// Type sets the text typed by the user. It is accepted in any state. Typed text replaces the
// position of an earlier capture, so its marker is removed.
func (w *Widget) Type(text string) {
	w.mu.Lock()
	w.text = text
	if strings.TrimSpace(text) != "" {
		w.marker = nil
		w.capturedAgo = ""
	}
	w.mu.Unlock()
	w.notify(geo.ManualAddress(text))
}

// UseMyLocation starts an acquisition of the device position in the background. It returns false
// without doing anything while another acquisition is in flight. A started acquisition cannot be
// cancelled, it ends with the locator's timeout.
func (w *Widget) UseMyLocation(ctx context.Context) bool {
	w.mu.Lock()
	if w.state == AcquiringLocation {
		w.mu.Unlock()
		return false
	}
	w.state = AcquiringLocation
	w.advisories = nil
	w.capturedAgo = ""
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.acquire(context.WithoutCancel(ctx))
	}()
	return true
}

func (w *Widget) acquire(ctx context.Context) {
	if w.opts.Locator == nil {
		w.fail(&geolocation.Error{Kind: geolocation.Unsupported})
		return
	}
	acq, err := w.opts.Locator.Acquire(ctx, w.opts.Device)
	if err != nil {
		w.fail(err)
		return
	}

	var advisories []Advisory
	if acq.LowAccuracy {
		advisories = append(advisories, w.lowAccuracyAdvisory(acq.Coordinate.AccuracyMeters))
	}
	addr, advisory := w.resolve(ctx, acq.Coordinate, acq.Address)
	if advisory != nil {
		advisories = append(advisories, *advisory)
	}
	var capturedAgo string
	if acq.Cached {
		capturedAgo = w.opts.Translator.Getf("Location captured %s", w.opts.Translator.Since(acq.Coordinate.CapturedAt))
	}

	w.mu.Lock()
	w.capturedAgo = capturedAgo
	w.mu.Unlock()
	w.complete(addr, &acq.Coordinate, advisories, true)
}

// PickOnMap resolves a coordinate picked on the map, the same way an acquired position is
// resolved.
func (w *Widget) PickOnMap(ctx context.Context, coord geo.Coordinate) error {
	if !coord.Valid() {
		return fmt.Errorf("invalid coordinate: %s", coord.DisplayText())
	}
	if coord.CapturedAt.IsZero() {
		coord.CapturedAt = w.opts.Clock.Now()
	}
	addr, advisory := w.resolve(ctx, coord, geo.CoordinateAddress(coord))
	var advisories []Advisory
	if advisory != nil {
		advisories = append(advisories, *advisory)
	}
	w.complete(addr, &coord, advisories, false)
	return nil
}

// Suggest returns the autocomplete predictions for the input.
func (w *Widget) Suggest(ctx context.Context, input string) (Suggestions, error) {
	if w.opts.Places == nil {
		return Suggestions{}, nil
	}
	predictions, err := w.opts.Places.Suggest(ctx, input, w.Session())
	switch {
	case errors.Is(err, places.ErrNotReady):
		w.setLoading(true)
		return Suggestions{Loading: true, Message: w.opts.Translator.Get("Loading address suggestions...")}, nil
	case errors.Is(err, places.ErrProviderLoad):
		w.setLoading(false)
		w.addAdvisory(w.placesUnavailableAdvisory())
		return Suggestions{}, nil
	case err != nil:
		return Suggestions{}, err
	}
	w.setLoading(false)
	if predictions == nil {
		predictions = []places.Prediction{}
	}
	return Suggestions{Predictions: predictions}, nil
}

// SelectPlace resolves the selected prediction. It returns false if the places provider is not
// ready yet or the place has no usable address.
func (w *Widget) SelectPlace(ctx context.Context, placeID string) (bool, error) {
	if w.opts.Places == nil {
		return false, nil
	}
	candidate, err := w.opts.Places.Select(ctx, placeID, w.Session())
	switch {
	case errors.Is(err, places.ErrNotReady):
		w.setLoading(true)
		return false, nil
	case errors.Is(err, places.ErrProviderLoad):
		w.setLoading(false)
		w.addAdvisory(w.placesUnavailableAdvisory())
		return false, nil
	case err != nil:
		return false, err
	case !candidate.Populated():
		w.setLoading(true)
		return false, nil
	}
	w.setLoading(false)

	addr := candidate.Resolve()
	if addr.Empty() {
		return false, nil
	}
	w.mu.Lock()
	w.session = places.NewSessionToken()
	w.mu.Unlock()
	w.complete(addr, candidate.Geometry, nil, false)
	return true, nil
}

// resolve reverse geocodes the coordinate. Without a geocoder, or if the geocoder fails, the
// fallback address is kept.
func (w *Widget) resolve(ctx context.Context, coord geo.Coordinate, fallback geo.ResolvedAddress) (geo.ResolvedAddress, *Advisory) {
	if w.opts.Geocoder == nil {
		return fallback, nil
	}
	addr, err := w.opts.Geocoder.Reverse(ctx, coord)
	if err != nil {
		if errors.Is(err, geocode.ErrNoMatch) {
			advisory := w.noMatchAdvisory()
			return fallback, &advisory
		}
		w.opts.Logger.Warn("reverse geocoding failed, keeping coordinates", logger.Err(err),
			slog.String("coordinates", coord.DisplayText()))
		return fallback, nil
	}
	if !addr.Usable() {
		advisory := w.noMatchAdvisory()
		return fallback, &advisory
	}
	return addr.Resolve(coord), nil
}

func (w *Widget) complete(addr geo.ResolvedAddress, coord *geo.Coordinate, advisories []Advisory, acquisition bool) {
	w.mu.Lock()
	if acquisition || w.state == Idle {
		w.state = Ready
	}
	if !acquisition {
		w.capturedAgo = ""
	}
	if !addr.Empty() {
		w.text = addr.DisplayText
	}
	w.advisories = advisories
	if w.opts.ShowMap && coord != nil {
		w.marker = &Marker{
			Position: *coord,
			Title:    runewidth.Truncate(addr.DisplayText, MarkerTitleWidth, "..."),
			MapURL:   geo.MapURL(*coord, w.opts.Zoom),
		}
	}
	w.mu.Unlock()
	w.notify(addr)
}

func (w *Widget) fail(err error) {
	kind := geolocation.Classify(err)
	w.opts.Logger.Debug("failed to acquire position", logger.Err(err),
		slog.String("device", w.opts.Device.String()))
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = Ready
	w.advisories = []Advisory{w.errorAdvisory(kind)}
}

func (w *Widget) notify(addr geo.ResolvedAddress) {
	if addr.Empty() || w.opts.OnChange == nil {
		return
	}
	w.opts.OnChange(addr)
}

func (w *Widget) setLoading(loading bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loading = loading
}

func (w *Widget) addAdvisory(advisory Advisory) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, a := range w.advisories {
		if a.Code == advisory.Code {
			return
		}
	}
	w.advisories = append(w.advisories, advisory)
}
