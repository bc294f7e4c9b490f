// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geo

import (
	"strings"
)

// DeviceClass distinguishes devices with satellite positioning from devices relying on
// network-based positioning.
type DeviceClass int

const (
	Desktop DeviceClass = iota
	Mobile
)

// mobileUserAgentTokens are matched case-insensitively against the User-Agent.
var mobileUserAgentTokens = []string{
	"android", "iphone", "ipad", "ipod", "mobile", "blackberry", "iemobile", "opera mini", "windows phone",
	"kaios",
}

func (d DeviceClass) String() string {
	switch d {
	case Mobile:
		return "mobile"
	default:
		return "desktop"
	}
}

// ParseDeviceClass maps "mobile" and "desktop" to the matching DeviceClass.
func ParseDeviceClass(val string) (DeviceClass, bool) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "mobile":
		return Mobile, true
	case "desktop":
		return Desktop, true
	default:
		return Desktop, false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d DeviceClass) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DetectDeviceClass derives the device class from the User-Agent and the number of touch points
// the client reported. A device is mobile if its User-Agent says so, or if it is a touch device
// posing as desktop Safari (iPadOS).
func DetectDeviceClass(userAgent string, maxTouchPoints int) DeviceClass {
	ua := strings.ToLower(userAgent)
	for _, token := range mobileUserAgentTokens {
		if strings.Contains(ua, token) {
			return Mobile
		}
	}
	if maxTouchPoints > 1 && strings.Contains(ua, "macintosh") {
		return Mobile
	}
	return Desktop
}
