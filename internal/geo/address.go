// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geo

import "strings"

// ResolvedAddress is the result of an address capture, either typed by hand (DisplayText only) or
// resolved from a coordinate or an autocomplete selection. It is handed to the caller on change
// and not retained.
type ResolvedAddress struct {
	DisplayText string      `json:"display_text"`
	Source      *Coordinate `json:"source_coordinate,omitempty"`
	PlaceID     string      `json:"place_id,omitempty"`
	Raw         any         `json:"raw,omitempty"`
}

// ManualAddress returns a ResolvedAddress for text typed by the user.
func ManualAddress(text string) ResolvedAddress {
	return ResolvedAddress{DisplayText: strings.TrimSpace(text)}
}

// CoordinateAddress returns a ResolvedAddress for the given fix, using the coordinate text as the
// display text.
func CoordinateAddress(coord Coordinate) ResolvedAddress {
	return ResolvedAddress{
		DisplayText: coord.DisplayText(),
		Source:      &coord,
	}
}

// Empty reports whether the address carries no usable text. Empty addresses are never forwarded.
func (a ResolvedAddress) Empty() bool {
	return strings.TrimSpace(a.DisplayText) == ""
}
