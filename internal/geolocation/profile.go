// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geolocation

import (
	"time"

	"github.com/wneessen/propertyloc/internal/geo"
)

// LowAccuracyThreshold is the accuracy radius in meters above which a mobile fix is flagged as
// low-accuracy.
const LowAccuracyThreshold = 100.0

// PositionOptions configures a single position request.
type PositionOptions struct {
	EnableHighAccuracy bool
	Timeout            time.Duration
	// MaximumAge is the oldest cached fix that may be returned instead of a fresh one. Zero disables
	// cached fixes.
	MaximumAge time.Duration
}

// Profile is the acquisition configuration for one device class.
type Profile struct {
	Device  geo.DeviceClass
	Options PositionOptions
	// AdviseLowAccuracy enables the low-accuracy advisory for fixes worse than LowAccuracyThreshold.
	AdviseLowAccuracy bool
}

// profiles is looked up once per acquisition. Desktop positioning is network based and assumed
// inaccurate, so it trades freshness for a faster answer.
var profiles = map[geo.DeviceClass]Profile{
	geo.Mobile: {
		Device: geo.Mobile,
		Options: PositionOptions{
			EnableHighAccuracy: true,
			Timeout:            10 * time.Second,
			MaximumAge:         0,
		},
		AdviseLowAccuracy: true,
	},
	geo.Desktop: {
		Device: geo.Desktop,
		Options: PositionOptions{
			EnableHighAccuracy: false,
			Timeout:            5 * time.Second,
			MaximumAge:         5 * time.Minute,
		},
	},
}

// ProfileFor returns the acquisition profile of the given device class. Unknown classes get the
// desktop profile.
func ProfileFor(device geo.DeviceClass) Profile {
	if p, ok := profiles[device]; ok {
		return p
	}
	return profiles[geo.Desktop]
}
