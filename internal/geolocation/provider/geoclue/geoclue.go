// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geoclue

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/wneessen/propertyloc/internal/geo"
	"github.com/wneessen/propertyloc/internal/geolocation"
)

const (
	name = "geoclue"

	busName          = "org.freedesktop.GeoClue2"
	managerPath      = dbus.ObjectPath("/org/freedesktop/GeoClue2/Manager")
	managerInterface = "org.freedesktop.GeoClue2.Manager"
	clientInterface  = "org.freedesktop.GeoClue2.Client"
	locationIface    = "org.freedesktop.GeoClue2.Location"
	propertiesGetAll = "org.freedesktop.DBus.Properties.GetAll"
	noLocationPath   = dbus.ObjectPath("/")

	DesktopID = "propertyloc"
)

// AccuracyLevel mirrors GClueAccuracyLevel.
type AccuracyLevel uint32

const (
	AccuracyLevelNone         AccuracyLevel = 0
	AccuracyLevelCountry      AccuracyLevel = 1
	AccuracyLevelCity         AccuracyLevel = 4
	AccuracyLevelNeighborhood AccuracyLevel = 5
	AccuracyLevelStreet       AccuracyLevel = 6
	AccuracyLevelExact        AccuracyLevel = 8
)

var accessDeniedErrors = []string{
	"org.freedesktop.DBus.Error.AccessDenied",
	"org.freedesktop.DBus.Error.AuthFailed",
}

// GeolocationGeoClueProvider requests the position from the GeoClue2 service on the system bus.
type GeolocationGeoClueProvider struct {
	name    string
	connect func(context.Context) (*dbus.Conn, error)
}

func NewGeolocationGeoClueProvider() *GeolocationGeoClueProvider {
	return &GeolocationGeoClueProvider{
		name: name,
		connect: func(ctx context.Context) (*dbus.Conn, error) {
			return dbus.ConnectSystemBus(dbus.WithContext(ctx))
		},
	}
}

func (p *GeolocationGeoClueProvider) Name() string {
	return p.name
}

// HighAccuracy is true since GeoClue uses satellite positioning when exact accuracy is requested.
func (p *GeolocationGeoClueProvider) HighAccuracy() bool {
	return true
}

// CurrentPosition registers a GeoClue client, starts it and waits for the first LocationUpdated
// signal. The client is stopped and deleted before returning.
func (p *GeolocationGeoClueProvider) CurrentPosition(ctx context.Context, opts geolocation.PositionOptions) (coord geo.Coordinate, err error) {
	conn, err := p.connect(ctx)
	if err != nil {
		return coord, fmt.Errorf("%w: failed to connect to system bus: %w", geolocation.ErrPositionUnavailable, err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close system bus: %w", closeErr))
		}
	}()

	manager := conn.Object(busName, managerPath)
	var clientPath dbus.ObjectPath
	if err = manager.CallWithContext(ctx, managerInterface+".GetClient", 0).Store(&clientPath); err != nil {
		return coord, classifyDBusError("failed to get geoclue client", err)
	}
	defer func() {
		_ = manager.CallWithContext(context.WithoutCancel(ctx), managerInterface+".DeleteClient", 0,
			clientPath).Err
	}()

	client := conn.Object(busName, clientPath)
	if err = client.SetProperty(clientInterface+".DesktopId", dbus.MakeVariant(DesktopID)); err != nil {
		return coord, classifyDBusError("failed to set desktop id", err)
	}
	if err = client.SetProperty(clientInterface+".RequestedAccuracyLevel",
		dbus.MakeVariant(uint32(RequestedLevel(opts)))); err != nil {
		return coord, classifyDBusError("failed to set requested accuracy level", err)
	}

	if err = conn.AddMatchSignal(dbus.WithMatchObjectPath(clientPath),
		dbus.WithMatchInterface(clientInterface), dbus.WithMatchMember("LocationUpdated")); err != nil {
		return coord, fmt.Errorf("failed to subscribe to location updates: %w", err)
	}
	signals := make(chan *dbus.Signal, 4)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)

	if err = client.CallWithContext(ctx, clientInterface+".Start", 0).Err; err != nil {
		return coord, classifyDBusError("failed to start geoclue client", err)
	}
	defer func() {
		_ = client.CallWithContext(context.WithoutCancel(ctx), clientInterface+".Stop", 0).Err
	}()

	for {
		select {
		case <-ctx.Done():
			return coord, ctx.Err()
		case sig, ok := <-signals:
			if !ok {
				return coord, fmt.Errorf("%w: system bus closed", geolocation.ErrPositionUnavailable)
			}
			locationPath, ok := newLocationPath(sig, clientPath)
			if !ok {
				continue
			}
			props := make(map[string]dbus.Variant)
			if err = conn.Object(busName, locationPath).CallWithContext(ctx, propertiesGetAll, 0,
				locationIface).Store(&props); err != nil {
				return coord, classifyDBusError("failed to read geoclue location", err)
			}
			return parseLocation(props)
		}
	}
}

// RequestedLevel maps the position options to the GeoClue accuracy level to request.
func RequestedLevel(opts geolocation.PositionOptions) AccuracyLevel {
	if opts.EnableHighAccuracy {
		return AccuracyLevelExact
	}
	return AccuracyLevelStreet
}

// newLocationPath extracts the new location object path from a LocationUpdated(old, new) signal.
func newLocationPath(sig *dbus.Signal, clientPath dbus.ObjectPath) (dbus.ObjectPath, bool) {
	if sig == nil || sig.Path != clientPath || sig.Name != clientInterface+".LocationUpdated" || len(sig.Body) != 2 {
		return "", false
	}
	path, ok := sig.Body[1].(dbus.ObjectPath)
	if !ok || path == noLocationPath || !path.IsValid() {
		return "", false
	}
	return path, true
}

func parseLocation(props map[string]dbus.Variant) (geo.Coordinate, error) {
	lat, latOK := props["Latitude"].Value().(float64)
	lon, lonOK := props["Longitude"].Value().(float64)
	acc, accOK := props["Accuracy"].Value().(float64)
	if !latOK || !lonOK || !accOK {
		return geo.Coordinate{}, fmt.Errorf("%w: incomplete geoclue location", geolocation.ErrPositionUnavailable)
	}

	coord := geo.Coordinate{Latitude: lat, Longitude: lon, AccuracyMeters: acc}
	if ts, ok := props["Timestamp"].Value().([]any); ok && len(ts) == 2 {
		sec, secOK := ts[0].(uint64)
		usec, usecOK := ts[1].(uint64)
		if secOK && usecOK && sec > 0 {
			coord.CapturedAt = time.Unix(int64(sec), int64(usec)*int64(time.Microsecond)).UTC()
		}
	}
	return coord, nil
}

// classifyDBusError reports a refused authorization as a denied permission.
func classifyDBusError(msg string, err error) error {
	if slices.Contains(accessDeniedErrors, dbusErrorName(err)) {
		return fmt.Errorf("%s: %w: %w", msg, geolocation.ErrPermissionDenied, err)
	}
	return fmt.Errorf("%s: %w: %w", msg, geolocation.ErrPositionUnavailable, err)
}

func dbusErrorName(err error) string {
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		return dbusErr.Name
	}
	var dbusErrPtr *dbus.Error
	if errors.As(err, &dbusErrPtr) && dbusErrPtr != nil {
		return dbusErrPtr.Name
	}
	return ""
}
