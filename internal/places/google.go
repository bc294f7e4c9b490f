// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package places

import (
	"context"
	"fmt"

	"golang.org/x/text/language"
	"googlemaps.github.io/maps"

	"github.com/wneessen/propertyloc/internal/config"
	"github.com/wneessen/propertyloc/internal/geo"
	"github.com/wneessen/propertyloc/internal/gmaps"
)

// candidateFields limits the details response to the fields of a Candidate.
var candidateFields = []maps.PlaceDetailsFieldMask{
	maps.PlaceDetailsFieldMaskFormattedAddress,
	maps.PlaceDetailsFieldMaskGeometry,
	maps.PlaceDetailsFieldMaskName,
	maps.PlaceDetailsFieldMaskPlaceID,
	maps.PlaceDetailsFieldMaskAddressComponent,
}

// Google is a Provider backed by the Google Places API, restricted to Nigeria.
type Google struct {
	client *maps.Client
	lang   language.Tag
}

func NewGoogle(client *maps.Client, lang language.Tag) *Google {
	return &Google{client: client, lang: lang}
}

// GoogleInit returns an InitFunc that creates a Google provider from the options.
func GoogleInit(opts gmaps.Options, lang language.Tag) InitFunc {
	return func(context.Context) (Provider, error) {
		client, err := gmaps.NewClient(opts)
		if err != nil {
			return nil, err
		}
		return NewGoogle(client, lang), nil
	}
}

func (g *Google) Name() string {
	return "google"
}

func (g *Google) Autocomplete(ctx context.Context, input string, token SessionToken) ([]Prediction, error) {
	resp, err := g.client.PlaceAutocomplete(ctx, &maps.PlaceAutocompleteRequest{
		Input:        input,
		Language:     g.lang.String(),
		Components:   map[maps.Component][]string{maps.ComponentCountry: {config.CountryCode}},
		SessionToken: maps.PlaceAutocompleteSessionToken(token),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch place predictions from Google Places API: %w", err)
	}

	predictions := make([]Prediction, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		predictions = append(predictions, Prediction{
			Description:   p.Description,
			PlaceID:       p.PlaceID,
			MainText:      p.StructuredFormatting.MainText,
			SecondaryText: p.StructuredFormatting.SecondaryText,
		})
	}
	return predictions, nil
}

func (g *Google) Details(ctx context.Context, placeID string, token SessionToken) (Candidate, error) {
	result, err := g.client.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID:      placeID,
		Language:     g.lang.String(),
		Region:       config.CountryCode,
		Fields:       candidateFields,
		SessionToken: maps.PlaceAutocompleteSessionToken(token),
	})
	if err != nil {
		return Candidate{}, fmt.Errorf("failed to fetch place details from Google Places API: %w", err)
	}

	candidate := Candidate{
		FormattedAddress:  result.FormattedAddress,
		Name:              result.Name,
		PlaceID:           result.PlaceID,
		AddressComponents: gmaps.Address(result.AddressComponents),
	}
	loc := result.Geometry.Location
	if loc.Lat != 0 || loc.Lng != 0 {
		candidate.Geometry = &geo.Coordinate{Latitude: loc.Lat, Longitude: loc.Lng}
	}
	return candidate, nil
}
