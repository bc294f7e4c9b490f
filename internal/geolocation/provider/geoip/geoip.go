// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geoip

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/propertyloc/internal/geo"
	"github.com/wneessen/propertyloc/internal/geolocation"
	"github.com/wneessen/propertyloc/internal/http"
)

const (
	APIEndpoint   = "https://reallyfreegeoip.org/json/"
	LookupTimeout = time.Second * 5
	name          = "geoip"
)

// GeolocationGeoIPProvider locates the host by its public IP address.
type GeolocationGeoIPProvider struct {
	name     string
	http     *http.Client
	endpoint string
}

type APIResult struct {
	IP          string  `json:"ip"`
	CountryCode string  `json:"country_code"`
	Country     string  `json:"country_name"`
	RegionCode  string  `json:"region_code,omitempty"`
	Region      string  `json:"region_name,omitempty"`
	City        string  `json:"city,omitempty"`
	ZipCode     string  `json:"zip_code,omitempty"`
	TimeZone    string  `json:"time_zone"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

func NewGeolocationGeoIPProvider(http *http.Client) *GeolocationGeoIPProvider {
	return &GeolocationGeoIPProvider{
		name:     name,
		http:     http,
		endpoint: APIEndpoint,
	}
}

func (p *GeolocationGeoIPProvider) Name() string {
	return p.name
}

func (p *GeolocationGeoIPProvider) HighAccuracy() bool {
	return false
}

// CurrentPosition looks up the public IP address. The accuracy is derived from the most detailed
// field the API returned.
func (p *GeolocationGeoIPProvider) CurrentPosition(ctx context.Context, _ geolocation.PositionOptions) (geo.Coordinate, error) {
	result := new(APIResult)
	if _, err := p.http.GetWithTimeout(ctx, p.endpoint, result, nil, nil, LookupTimeout); err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to get geolocation data from API: %w", err)
	}
	if result.CountryCode == "" && result.Latitude == 0 && result.Longitude == 0 {
		return geo.Coordinate{}, fmt.Errorf("%w: no location for IP %q", geolocation.ErrPositionUnavailable,
			result.IP)
	}

	acc := float64(geolocation.AccuracyUnknown)
	switch {
	case result.ZipCode != "":
		acc = geolocation.AccuracyZip
	case result.City != "":
		acc = geolocation.AccuracyCity
	case result.RegionCode != "":
		acc = geolocation.AccuracyRegion
	case result.CountryCode != "":
		acc = geolocation.AccuracyCountry
	}

	return geo.Coordinate{
		Latitude:       geo.Truncate(result.Latitude, geolocation.TruncPrecision),
		Longitude:      geo.Truncate(result.Longitude, geolocation.TruncPrecision),
		AccuracyMeters: acc,
	}, nil
}
