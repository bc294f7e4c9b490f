// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package gmaps holds the Google Maps Platform client setup and address component parsing shared
// by the places client and the Google geocoder.
package gmaps

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/wneessen/propertyloc/internal/geocode"
)

var ErrMissingAPIKey = errors.New("google maps API key is missing")

// Options configures a Maps client.
type Options struct {
	APIKey string
	// BaseURL overrides the Google Maps API host, used by tests.
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a Maps client for the given options.
func NewClient(opts Options) (*maps.Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	clientOpts := []maps.ClientOption{maps.WithAPIKey(opts.APIKey)}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, maps.WithHTTPClient(opts.HTTPClient))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, maps.WithBaseURL(opts.BaseURL))
	}
	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create google maps client: %w", err)
	}
	return client, nil
}

// Address fills a geocode.Address from Google address components. In Nigeria the first
// administrative level is the state and the second the LGA.
func Address(components []maps.AddressComponent) geocode.Address {
	var addr geocode.Address
	for _, comp := range components {
		switch {
		case has(comp, "street_number"):
			addr.HouseNumber = comp.LongName
		case has(comp, "route"):
			addr.Street = comp.LongName
		case has(comp, "sublocality_level_1"), has(comp, "sublocality"), has(comp, "neighborhood"):
			if addr.Area == "" {
				addr.Area = comp.LongName
			}
		case has(comp, "locality"):
			addr.City = comp.LongName
		case has(comp, "administrative_area_level_2"):
			addr.LGA = comp.LongName
		case has(comp, "administrative_area_level_1"):
			addr.State = comp.LongName
		case has(comp, "postal_code"):
			addr.Postcode = comp.LongName
		case has(comp, "country"):
			addr.Country = comp.LongName
			addr.CountryCode = strings.ToLower(comp.ShortName)
		}
	}
	return addr
}

func has(comp maps.AddressComponent, kind string) bool {
	return slices.Contains(comp.Types, kind)
}
