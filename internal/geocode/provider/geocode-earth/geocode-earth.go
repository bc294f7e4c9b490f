// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocodeearth

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/text/language"

	"github.com/wneessen/propertyloc/internal/config"
	"github.com/wneessen/propertyloc/internal/geo"
	"github.com/wneessen/propertyloc/internal/geocode"
	"github.com/wneessen/propertyloc/internal/http"
)

const (
	APIEndpoint = "https://api.geocode.earth/v1/reverse"
	APITimeout  = time.Second * 10
	name        = "geocode-earth"

	// boundaryCountry is the ISO 3166-1 alpha-3 code of Nigeria, as expected by Pelias.
	boundaryCountry = "NGA"
)

type GeocodeEarth struct {
	apikey string
	http   *http.Client
	lang   language.Tag
}

type Response struct {
	Features []Feature `json:"features"`
	Type     string    `json:"type"`
}

type Feature struct {
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
	Type       string     `json:"type"`
}

type Geometry struct {
	// Coordinates are in GeoJSON order: longitude, latitude
	Coordinates []float64 `json:"coordinates"`
}

type Properties struct {
	GID           string `json:"gid"`
	DisplayName   string `json:"label"`
	Locality      string `json:"locality"`
	County        string `json:"county"`
	Country       string `json:"country"`
	CountryCode   string `json:"country_code"`
	HouseNumber   string `json:"housenumber"`
	Neighbourhood string `json:"neighbourhood"`
	Postcode      string `json:"postalcode"`
	Road          string `json:"street"`
	State         string `json:"region"`
}

func New(client *http.Client, lang language.Tag, apikey string) *GeocodeEarth {
	return &GeocodeEarth{
		apikey: apikey,
		lang:   lang,
		http:   client,
	}
}

func (g *GeocodeEarth) Name() string {
	return name
}

func (g *GeocodeEarth) Reverse(ctx context.Context, coord geo.Coordinate) (geocode.Address, error) {
	var response Response

	query := url.Values{}
	query.Set("api_key", g.apikey)
	query.Set("point.lat", strconv.FormatFloat(coord.Latitude, 'f', geo.DisplayPrecision, 64))
	query.Set("point.lon", strconv.FormatFloat(coord.Longitude, 'f', geo.DisplayPrecision, 64))
	query.Set("boundary.country", boundaryCountry)
	query.Set("size", "1")
	query.Set("lang", g.lang.String())

	if _, err := g.http.GetWithTimeout(ctx, APIEndpoint, &response, query, nil, APITimeout); err != nil {
		return geocode.Address{}, fmt.Errorf("failed to retrieve address details from geocode.earth API: %w", err)
	}
	if len(response.Features) < 1 {
		return geocode.Address{}, geocode.ErrNoMatch
	}

	feature := response.Features[0]
	result := feature.Properties
	address := geocode.Address{
		Latitude:         coord.Latitude,
		Longitude:        coord.Longitude,
		FormattedAddress: result.DisplayName,
		PlaceID:          result.GID,
		Country:          result.Country,
		State:            result.State,
		LGA:              result.County,
		City:             result.Locality,
		Area:             result.Neighbourhood,
		Postcode:         result.Postcode,
		Street:           result.Road,
		HouseNumber:      result.HouseNumber,
	}
	if len(feature.Geometry.Coordinates) == 2 {
		address.Longitude = feature.Geometry.Coordinates[0]
		address.Latitude = feature.Geometry.Coordinates[1]
	}
	if result.CountryCode != "" && result.CountryCode != boundaryCountry {
		address.CountryCode = result.CountryCode
	}
	if !address.Usable() || !address.InCountry(config.CountryCode) {
		return geocode.Address{}, geocode.ErrNoMatch
	}

	return address, nil
}
