// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package opencage

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
	APIEndpoint = "https://api.opencagedata.com/geocode/v1/json"
	APITimeout  = time.Second * 10
	name        = "opencage"
)

type OpenCage struct {
	apikey string
	http   *http.Client
	lang   language.Tag
}

type Response struct {
	Results      []Result `json:"results"`
	TotalResults int      `json:"total_results"`
	Status       struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
}

type Result struct {
	Components  Components `json:"components"`
	DisplayName string     `json:"formatted"`
	Geometry    Geometry   `json:"geometry"`
}

type Components struct {
	NormalizedCity string `json:"_normalized_city"`
	City           string `json:"city"`
	Country        string `json:"country"`
	CountryCode    string `json:"country_code"`
	County         string `json:"county"`
	HouseNumber    string `json:"house_number"`
	Neighbourhood  string `json:"neighbourhood"`
	Postcode       string `json:"postcode"`
	Road           string `json:"road"`
	State          string `json:"state"`
	Suburb         string `json:"suburb"`
	Town           string `json:"town"`
	Village        string `json:"village"`
}

type Geometry struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

func New(client *http.Client, lang language.Tag, apikey string) *OpenCage {
	return &OpenCage{
		apikey: apikey,
		lang:   lang,
		http:   client,
	}
}

func (o *OpenCage) Name() string {
	return name
}

func (o *OpenCage) Reverse(ctx context.Context, coord geo.Coordinate) (geocode.Address, error) {
	var response Response

	query := url.Values{}
	query.Set("key", o.apikey)
	query.Set("q", strconv.FormatFloat(coord.Latitude, 'f', geo.DisplayPrecision, 64)+","+
		strconv.FormatFloat(coord.Longitude, 'f', geo.DisplayPrecision, 64))
	query.Set("countrycode", config.CountryCode)
	query.Set("no_annotations", "1")
	query.Set("no_record", "1")
	query.Set("limit", "1")
	query.Set("language", o.lang.String())

	if _, err := o.http.GetWithTimeout(ctx, APIEndpoint, &response, query, nil, APITimeout); err != nil {
		return geocode.Address{}, fmt.Errorf("failed to retrieve address details from OpenCage API: %w", err)
	}
	if len(response.Results) == 0 {
		return geocode.Address{}, geocode.ErrNoMatch
	}

	result := response.Results[0]
	comp := result.Components
	address := geocode.Address{
		Latitude:         result.Geometry.Lat,
		Longitude:        result.Geometry.Lon,
		FormattedAddress: result.DisplayName,
		Country:          comp.Country,
		CountryCode:      comp.CountryCode,
		State:            comp.State,
		LGA:              comp.County,
		City:             comp.NormalizedCity,
		Area:             comp.Suburb,
		Postcode:         comp.Postcode,
		Street:           comp.Road,
		HouseNumber:      comp.HouseNumber,
	}
	for _, city := range []string{comp.City, comp.Town, comp.Village} {
		if address.City == "" && city != "" {
			address.City = city
		}
	}
	if address.Area == "" {
		address.Area = comp.Neighbourhood
	}
	if !address.Usable() || !address.InCountry(config.CountryCode) {
		return geocode.Address{}, geocode.ErrNoMatch
	}

	return address, nil
}
