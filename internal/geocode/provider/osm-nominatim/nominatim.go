// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package nominatim

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
	APIReverseEndpoint = "https://nominatim.openstreetmap.org/reverse"
	APITimeout         = time.Second * 10
	name               = "osm-nominatim"
)

type Nominatim struct {
	http *http.Client
	lang language.Tag
}

type ReverseResult struct {
	Error       string  `json:"error"`
	PlaceID     int64   `json:"place_id"`
	APILat      string  `json:"lat"`
	APILon      string  `json:"lon"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Address     Address `json:"address"`
}

type Address struct {
	HouseNumber   string `json:"house_number"`
	Road          string `json:"road"`
	Neighbourhood string `json:"neighbourhood"`
	Suburb        string `json:"suburb"`
	County        string `json:"county"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	State         string `json:"state"`
	Postcode      string `json:"postcode"`
	Country       string `json:"country"`
	CountryCode   string `json:"country_code"`
}

func New(client *http.Client, lang language.Tag) *Nominatim {
	return &Nominatim{
		lang: lang,
		http: client,
	}
}

func (n *Nominatim) Name() string {
	return name
}

// Reverse resolves the coordinate with the Nominatim reverse API. Results outside of Nigeria are
// reported as ErrNoMatch.
func (n *Nominatim) Reverse(ctx context.Context, coord geo.Coordinate) (geocode.Address, error) {
	var result ReverseResult
	var err error

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("addressdetails", "1")
	query.Set("lat", strconv.FormatFloat(coord.Latitude, 'f', geo.DisplayPrecision, 64))
	query.Set("lon", strconv.FormatFloat(coord.Longitude, 'f', geo.DisplayPrecision, 64))
	query.Set("accept-language", n.lang.String())

	if _, err = n.http.GetWithTimeout(ctx, APIReverseEndpoint, &result, query, nil, APITimeout); err != nil {
		return geocode.Address{}, fmt.Errorf("failed to fetch reverse address details from Nominatim API: %w", err)
	}
	if result.Error != "" || result.DisplayName == "" {
		return geocode.Address{}, geocode.ErrNoMatch
	}

	address := geocode.Address{
		FormattedAddress: result.DisplayName,
		Country:          result.Address.Country,
		CountryCode:      result.Address.CountryCode,
		State:            result.Address.State,
		LGA:              result.Address.County,
		City:             firstOf(result.Address.City, result.Address.Town, result.Address.Village),
		Area:             firstOf(result.Address.Suburb, result.Address.Neighbourhood),
		Postcode:         result.Address.Postcode,
		Street:           result.Address.Road,
		HouseNumber:      result.Address.HouseNumber,
	}
	if result.PlaceID != 0 {
		address.PlaceID = "osm:" + strconv.FormatInt(result.PlaceID, 10)
	}
	if !address.InCountry(config.CountryCode) {
		return geocode.Address{}, geocode.ErrNoMatch
	}
	address.Latitude, err = strconv.ParseFloat(result.APILat, 64)
	if err != nil {
		return geocode.Address{}, fmt.Errorf("failed to parse latitude from Nominatim API response: %w", err)
	}
	address.Longitude, err = strconv.ParseFloat(result.APILon, 64)
	if err != nil {
		return geocode.Address{}, fmt.Errorf("failed to parse longitude from Nominatim API response: %w", err)
	}

	return address, nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
