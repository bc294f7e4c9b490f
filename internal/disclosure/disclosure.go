// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package disclosure decides how much of a property's location is shown to a viewer.
package disclosure

import (
	"fmt"
	"strings"

	"github.com/wneessen/propertyloc/internal/geo"
)

const (
	// AreaGrid is the cell size in degrees the coordinate of an AreaOnly property is snapped to.
	AreaGrid = 0.01

	// AreaRadius is the uncertainty disc in meters drawn around an area centroid.
	AreaRadius = 1000
)

// Tier is the disclosure tier chosen by the property owner.
type Tier int

const (
	ExactLocation Tier = iota
	AreaOnly
)

func (t Tier) String() string {
	switch t {
	case AreaOnly:
		return "area_only"
	default:
		return "exact_location"
	}
}

// ParseTier maps the textual tier to a Tier.
func ParseTier(val string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "exact_location", "exact":
		return ExactLocation, nil
	case "area_only", "area":
		return AreaOnly, nil
	default:
		return ExactLocation, fmt.Errorf("unknown disclosure tier: %q", val)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(text []byte) error {
	tier, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = tier
	return nil
}

// MarkerKind distinguishes a pin at the exact spot from a disc around an approximate area.
type MarkerKind int

const (
	Precise MarkerKind = iota
	Approximate
)

func (k MarkerKind) String() string {
	if k == Approximate {
		return "approximate"
	}
	return "precise"
}

// MarshalText implements encoding.TextMarshaler.
func (k MarkerKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Property is the location data of a listing as stored.
type Property struct {
	Tier          Tier
	Coordinate    geo.Coordinate
	StreetAddress string
	Area          string
	State         string
}

// Marker is what a map view draws for a property.
type Marker struct {
	Kind         MarkerKind     `json:"kind"`
	Center       geo.Coordinate `json:"center"`
	RadiusMeters float64        `json:"radius_meters"`
}

// View is the rendered location of a property.
type View struct {
	Marker Marker `json:"marker"`
	Label  string `json:"label"`
}

// Render returns the view of the property for its tier. It has no side effects.
func Render(p Property) View {
	if p.Tier == AreaOnly {
		return View{
			Marker: Marker{
				Kind:         Approximate,
				Center:       p.Coordinate.SnapToGrid(AreaGrid),
				RadiusMeters: AreaRadius,
			},
			Label: areaLabel(p.Area, p.State),
		}
	}
	return View{
		Marker: Marker{
			Kind:   Precise,
			Center: geo.Coordinate{Latitude: p.Coordinate.Latitude, Longitude: p.Coordinate.Longitude},
		},
		Label:  strings.TrimSpace(p.StreetAddress),
	}
}

func areaLabel(area, state string) string {
	parts := make([]string, 0, 2)
	for _, part := range []string{area, state} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}
