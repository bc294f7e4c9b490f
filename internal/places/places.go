// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package places

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/wneessen/propertyloc/internal/geo"
	"github.com/wneessen/propertyloc/internal/geocode"
)

// ErrNotReady is returned while the provider is still loading.
var ErrNotReady = errors.New("places provider is not ready yet")

// SessionToken groups the autocomplete requests of one user input session with the final
// details request for billing purposes.
type SessionToken uuid.UUID

// NewSessionToken returns a random session token.
func NewSessionToken() SessionToken {
	return SessionToken(uuid.New())
}

// ParseSessionToken parses the string form of a session token.
func ParseSessionToken(s string) (SessionToken, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return SessionToken{}, fmt.Errorf("invalid session token: %w", err)
	}
	return SessionToken(id), nil
}

func (t SessionToken) String() string {
	return uuid.UUID(t).String()
}

// Prediction is a single autocomplete suggestion.
type Prediction struct {
	Description   string `json:"description"`
	PlaceID       string `json:"place_id"`
	MainText      string `json:"main_text"`
	SecondaryText string `json:"secondary_text,omitempty"`
}

// Candidate is the selected place. Only these fields are requested from the provider.
type Candidate struct {
	FormattedAddress  string          `json:"formatted_address"`
	Geometry          *geo.Coordinate `json:"geometry,omitempty"`
	Name              string          `json:"name"`
	PlaceID           string          `json:"place_id"`
	AddressComponents geocode.Address `json:"address_components"`
}

// Populated reports whether any candidate field is set. An unpopulated candidate means the
// client was not ready.
func (c Candidate) Populated() bool {
	return c.FormattedAddress != "" || c.Geometry != nil || c.Name != "" || c.PlaceID != ""
}

// Resolve returns the ResolvedAddress for the candidate. The formatted address is preferred, the
// place name is used if the provider returned no address.
func (c Candidate) Resolve() geo.ResolvedAddress {
	text := strings.TrimSpace(c.FormattedAddress)
	if text == "" {
		text = strings.TrimSpace(c.Name)
	}
	return geo.ResolvedAddress{
		DisplayText: text,
		Source:      c.Geometry,
		PlaceID:     c.PlaceID,
		Raw:         c,
	}
}

// Provider is a country-restricted place autocomplete service.
type Provider interface {
	Name() string
	Autocomplete(ctx context.Context, input string, token SessionToken) ([]Prediction, error)
	Details(ctx context.Context, placeID string, token SessionToken) (Candidate, error)
}

// Client serves autocomplete requests once the Loader is ready. It never blocks on the loader:
// while the provider loads, calls return ErrNotReady.
type Client struct {
	loader *Loader
}

func NewClient(loader *Loader) *Client {
	return &Client{loader: loader}
}

// State returns the loader state.
func (c *Client) State() State {
	return c.loader.State()
}

// Suggest returns the predictions for the input. Blank input returns no predictions.
func (c *Client) Suggest(ctx context.Context, input string, token SessionToken) ([]Prediction, error) {
	provider, err := c.provider(ctx)
	if err != nil {
		return nil, err
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	return provider.Autocomplete(ctx, input, token)
}

// Select returns exactly one candidate for the place. While the provider loads the returned
// candidate is unpopulated.
func (c *Client) Select(ctx context.Context, placeID string, token SessionToken) (Candidate, error) {
	provider, err := c.provider(ctx)
	if err != nil {
		return Candidate{}, err
	}
	if strings.TrimSpace(placeID) == "" {
		return Candidate{}, errors.New("place id is required")
	}
	return provider.Details(ctx, placeID, token)
}

func (c *Client) provider(ctx context.Context) (Provider, error) {
	if provider, ok := c.loader.Provider(); ok {
		return provider, nil
	}
	if err := c.loader.Err(); err != nil {
		return nil, err
	}
	c.loader.Start(ctx)
	return nil, ErrNotReady
}
