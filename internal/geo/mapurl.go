// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geo

import (
	"fmt"
	"net/url"
)

const (
	mapBaseURL = "https://www.google.com/maps"

	DefaultZoom = 16
)

// MapURL returns a link that opens the full map view centered at the coordinate with the given
// zoom level.
func MapURL(c Coordinate, zoom int) string {
	if zoom < 1 {
		zoom = DefaultZoom
	}
	query := url.Values{}
	query.Set("q", fmt.Sprintf("%.*f,%.*f", DisplayPrecision, c.Latitude, DisplayPrecision, c.Longitude))
	query.Set("z", fmt.Sprintf("%d", zoom))
	return mapBaseURL + "?" + query.Encode()
}
