// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package google

import (
	"context"
	"fmt"

	"golang.org/x/text/language"
	"googlemaps.github.io/maps"

	"github.com/wneessen/propertyloc/internal/config"
	"github.com/wneessen/propertyloc/internal/geo"
	"github.com/wneessen/propertyloc/internal/geocode"
	"github.com/wneessen/propertyloc/internal/gmaps"
)

const name = "google"

// Google reverse geocodes with the Google Maps Geocoding API.
type Google struct {
	client *maps.Client
	lang   language.Tag
}

func New(client *maps.Client, lang language.Tag) *Google {
	return &Google{
		client: client,
		lang:   lang,
	}
}

func (g *Google) Name() string {
	return name
}

func (g *Google) Reverse(ctx context.Context, coord geo.Coordinate) (geocode.Address, error) {
	results, err := g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: coord.Latitude, Lng: coord.Longitude},
		Language: g.lang.String(),
		Region:   config.CountryCode,
	})
	if err != nil {
		return geocode.Address{}, fmt.Errorf("failed to retrieve address details from Google Geocoding API: %w", err)
	}
	if len(results) == 0 {
		return geocode.Address{}, geocode.ErrNoMatch
	}

	result := results[0]
	address := gmaps.Address(result.AddressComponents)
	address.FormattedAddress = result.FormattedAddress
	address.PlaceID = result.PlaceID
	address.Latitude = result.Geometry.Location.Lat
	address.Longitude = result.Geometry.Location.Lng
	if !address.Usable() || !address.InCountry(config.CountryCode) {
		return geocode.Address{}, geocode.ErrNoMatch
	}

	return address, nil
}
