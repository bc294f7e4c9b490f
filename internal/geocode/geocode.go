// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"errors"
	"strings"

	"github.com/wneessen/propertyloc/internal/geo"
)

// ErrNoMatch is returned when the provider has no usable address for a coordinate.
var ErrNoMatch = errors.New("no address found for coordinates")

// Address is a reverse geocoding result. LGA holds the Local Government Area, which the providers
// report as county or municipality.
type Address struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formatted_address"`
	PlaceID          string  `json:"place_id,omitempty"`
	Country          string  `json:"country,omitempty"`
	CountryCode      string  `json:"country_code,omitempty"`
	State            string  `json:"state,omitempty"`
	LGA              string  `json:"lga,omitempty"`
	City             string  `json:"city,omitempty"`
	Area             string  `json:"area,omitempty"`
	Postcode         string  `json:"postcode,omitempty"`
	Street           string  `json:"street,omitempty"`
	HouseNumber      string  `json:"house_number,omitempty"`

	CacheHit bool `json:"-"`
}

// Geocoder resolves a coordinate into a human-readable address.
type Geocoder interface {
	Name() string
	Reverse(ctx context.Context, coord geo.Coordinate) (Address, error)
}

// Usable reports whether the address carries text that can be shown to a user.
func (a Address) Usable() bool {
	return strings.TrimSpace(a.FormattedAddress) != ""
}

// Resolve returns the ResolvedAddress for a geocoded coordinate. The source coordinate is the one
// that was geocoded, not the provider's geometry.
func (a Address) Resolve(source geo.Coordinate) geo.ResolvedAddress {
	return geo.ResolvedAddress{
		DisplayText: strings.TrimSpace(a.FormattedAddress),
		Source:      &source,
		PlaceID:     a.PlaceID,
		Raw:         a,
	}
}

// InCountry reports whether the address lies in the country with the given ISO 3166-1 alpha-2
// code. Addresses without a country code are accepted.
func (a Address) InCountry(code string) bool {
	return a.CountryCode == "" || strings.EqualFold(a.CountryCode, code)
}
