// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geo

import (
	"fmt"
	"math"
	"time"
)

const (
	EarthRadius = 6371000.0 // meters

	// DisplayPrecision is the number of decimal places used when a coordinate is shown as text.
	DisplayPrecision = 6
)

// Coordinate is a single position fix. A Coordinate is never modified after it has been created,
// a newer fix replaces it.
type Coordinate struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters float64   `json:"accuracy_meters"`
	CapturedAt     time.Time `json:"captured_at"`
}

// Valid checks if the coordinate is valid according to the EPSG:4326 bounds and carries a
// non-negative accuracy.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180 &&
		c.AccuracyMeters >= 0 && !math.IsNaN(c.Latitude) && !math.IsNaN(c.Longitude)
}

// DisplayText formats the coordinate as "lat, lon" with six decimal places. It serves as
// placeholder text until the user replaces it with a street address.
func (c Coordinate) DisplayText() string {
	return fmt.Sprintf("%.*f, %.*f", DisplayPrecision, c.Latitude, DisplayPrecision, c.Longitude)
}

// Age returns how old the fix is relative to now.
func (c Coordinate) Age(now time.Time) time.Duration {
	if c.CapturedAt.IsZero() {
		return time.Duration(math.MaxInt64)
	}
	return now.Sub(c.CapturedAt)
}

// MoreAccurateThan reports whether c is a better fix than other. A lower accuracy radius wins,
// on equal accuracy the newer fix wins.
func (c Coordinate) MoreAccurateThan(other Coordinate) bool {
	if c.AccuracyMeters != other.AccuracyMeters {
		return c.AccuracyMeters < other.AccuracyMeters
	}
	return c.CapturedAt.After(other.CapturedAt)
}

// DistanceTo returns the great-circle distance in meters between two coordinates using the
// Haversine formula.
func (c Coordinate) DistanceTo(other Coordinate) float64 {
	dLat := (c.Latitude - other.Latitude) * math.Pi / 180
	dLon := (c.Longitude - other.Longitude) * math.Pi / 180
	lat1 := c.Latitude * math.Pi / 180
	lat2 := other.Latitude * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadius * math.Asin(math.Sqrt(h))
}

// SnapToGrid returns the center of the grid cell of the given size in degrees that contains c.
// Accuracy and capture time are dropped.
func (c Coordinate) SnapToGrid(cell float64) Coordinate {
	return Coordinate{
		Latitude:  (math.Floor(c.Latitude/cell) + 0.5) * cell,
		Longitude: (math.Floor(c.Longitude/cell) + 0.5) * cell,
	}
}

// Truncate cuts x down to the given number of decimal places.
func Truncate(x float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Trunc(x*p) / p
}
