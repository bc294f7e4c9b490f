// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package gpsd

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/propertyloc/internal/geo"
	"github.com/wneessen/propertyloc/internal/geolocation"
)

const name = "gpsd"

// GeolocationGPSDProvider reads a satellite fix from a local gpsd daemon.
type GeolocationGPSDProvider struct {
	name   string
	client *Client
}

func NewGeolocationGPSDProvider(host, port string) *GeolocationGPSDProvider {
	return &GeolocationGPSDProvider{
		name:   name,
		client: NewClient(host, port),
	}
}

func (p *GeolocationGPSDProvider) Name() string {
	return p.name
}

func (p *GeolocationGPSDProvider) HighAccuracy() bool {
	return true
}

// CurrentPosition polls gpsd once. A receiver without fix is an unavailable position.
func (p *GeolocationGPSDProvider) CurrentPosition(ctx context.Context, _ geolocation.PositionOptions) (geo.Coordinate, error) {
	fix, err := p.client.Poll(ctx)
	switch {
	case errors.Is(err, ErrNoFix), errors.Is(err, ErrNoTPV):
		return geo.Coordinate{}, fmt.Errorf("%w: %w", geolocation.ErrPositionUnavailable, err)
	case err != nil:
		return geo.Coordinate{}, err
	}
	return geo.Coordinate{
		Latitude:       fix.Lat,
		Longitude:      fix.Lon,
		AccuracyMeters: fix.Acc,
		CapturedAt:     fix.Time,
	}, nil
}
