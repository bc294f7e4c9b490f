// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package property stores the captured location of property listings. The listing flow writes a
// location once the address has been captured, the disclosure policy reads it at display time.
package property

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wneessen/propertyloc/internal/disclosure"
	"github.com/wneessen/propertyloc/internal/geo"
)

// ErrNotFound is returned if no location is stored for a property.
var ErrNotFound = errors.New("property location not found")

// Location is the stored location of a property.
type Location struct {
	PropertyID    uuid.UUID       `json:"property_id"`
	Tier          disclosure.Tier `json:"tier"`
	StreetAddress string          `json:"street_address"`
	Area          string          `json:"area"`
	LGA           string          `json:"lga"`
	State         string          `json:"state"`
	PlaceID       string          `json:"place_id,omitempty"`
	Coordinate    geo.Coordinate  `json:"coordinate"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Validate checks that the location can be stored.
func (l Location) Validate() error {
	if l.PropertyID == uuid.Nil {
		return errors.New("property id is required")
	}
	if strings.TrimSpace(l.StreetAddress) == "" {
		return errors.New("street address is required")
	}
	if !l.Coordinate.Valid() {
		return fmt.Errorf("invalid coordinate: %s", l.Coordinate.DisplayText())
	}
	if l.Tier == disclosure.AreaOnly && strings.TrimSpace(l.Area) == "" && strings.TrimSpace(l.State) == "" {
		return errors.New("area only disclosure requires an area or state")
	}
	return nil
}

// Disclosure returns the input of the disclosure policy for the location.
func (l Location) Disclosure() disclosure.Property {
	return disclosure.Property{
		Tier:          l.Tier,
		Coordinate:    l.Coordinate,
		StreetAddress: l.StreetAddress,
		Area:          l.Area,
		State:         l.State,
	}
}

// Repository stores property locations.
type Repository interface {
	SaveLocation(ctx context.Context, loc Location) (Location, error)
	Location(ctx context.Context, id uuid.UUID) (Location, error)
	Ping(ctx context.Context) error
}
