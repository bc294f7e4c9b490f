// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geolocation

// Accuracy radii in meters for sources that do not report their own accuracy.
const (
	AccuracyCountry = 300000
	AccuracyRegion  = 100000
	AccuracyCity    = 15000
	AccuracyZip     = 3000
	AccuracyUnknown = 1000000

	// TruncPrecision is the number of decimals kept for network-based fixes.
	TruncPrecision = 4
)
