// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geolocation_file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/wneessen/propertyloc/internal/geo"
	"github.com/wneessen/propertyloc/internal/geolocation"
)

const (
	name = "geolocation_file"

	// Accuracy is assigned to coordinates read from the file. A position that was put there by hand
	// is considered the most accurate data available.
	Accuracy = 5
)

var ErrNoCoordinates = errors.New("no valid coordinates found in geolocation file")

// GeolocationFileProvider reads a fixed position from a file. Lines starting with # are ignored,
// the first line of the form "lat,lon" is used.
type GeolocationFileProvider struct {
	name string
	path string
}

// NewGeolocationFileProvider returns a GeolocationFileProvider for the given file path.
func NewGeolocationFileProvider(path string) *GeolocationFileProvider {
	return &GeolocationFileProvider{
		name: name,
		path: path,
	}
}

// Name returns the name of the GeolocationFileProvider instance.
func (p *GeolocationFileProvider) Name() string {
	return p.name
}

// HighAccuracy is false, the file is treated like a network source so it is also used on
// desktop devices.
func (p *GeolocationFileProvider) HighAccuracy() bool {
	return false
}

// CurrentPosition reads the file. An unreadable file due to missing permissions is reported as a
// denied permission, a missing or malformed file as an unavailable position.
func (p *GeolocationFileProvider) CurrentPosition(ctx context.Context, _ geolocation.PositionOptions) (geo.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return geo.Coordinate{}, err
	}
	lat, lon, err := p.readFile()
	switch {
	case errors.Is(err, fs.ErrPermission):
		return geo.Coordinate{}, fmt.Errorf("%w: %w", geolocation.ErrPermissionDenied, err)
	case err != nil:
		return geo.Coordinate{}, fmt.Errorf("%w: %w", geolocation.ErrPositionUnavailable, err)
	}
	return geo.Coordinate{Latitude: lat, Longitude: lon, AccuracyMeters: Accuracy}, nil
}

// readFile reads geolocation data from the file at the configured path.
func (p *GeolocationFileProvider) readFile() (lat, lon float64, err error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read geolocation file %q: %w", p.path, err)
	}
	for line := range strings.Lines(string(data)) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		coords := strings.Split(line, ",")
		if len(coords) != 2 {
			continue
		}
		lat, err = strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
		if err != nil {
			continue
		}
		lon, err = strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
		if err != nil {
			continue
		}
		if !(geo.Coordinate{Latitude: lat, Longitude: lon}).Valid() {
			continue
		}
		return lat, lon, nil
	}
	return 0, 0, ErrNoCoordinates
}
