// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package ichnaea

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mdlayher/wifi"

	"github.com/wneessen/propertyloc/internal/geo"
	"github.com/wneessen/propertyloc/internal/geolocation"
	"github.com/wneessen/propertyloc/internal/http"
)

const (
	apiEndpoint   = "https://api.beacondb.net/v1/geolocate"
	lookupTimeout = time.Second * 5
	name          = "ichnaea"
)

// Scanner lists the wireless interfaces and the access points visible to them. *wifi.Client
// satisfies it.
type Scanner interface {
	Interfaces() ([]*wifi.Interface, error)
	AccessPoints(ifi *wifi.Interface) ([]*wifi.BSS, error)
}

// GeolocationICHNAEAProvider locates the host through an ichnaea compatible API (BeaconDB) using the
// visible WiFi access points.
type GeolocationICHNAEAProvider struct {
	name     string
	http     *http.Client
	wlan     Scanner
	endpoint string
}

type APIResult struct {
	Location struct {
		Latitude  float64 `json:"lat"`
		Longitude float64 `json:"lng"`
	} `json:"location"`
	Accuracy float64 `json:"accuracy"`
}

type WirelessNetwork struct {
	LastSeen       int64  `json:"age"`
	MACAddress     string `json:"macAddress"`
	SignalStrength int32  `json:"signalStrength"`
}

type request struct {
	ConsiderIP   bool              `json:"considerIp"`
	Accesspoints []WirelessNetwork `json:"wifiAccessPoints,omitempty"`
}

// NewGeolocationICHNAEAProvider returns a provider that scans with the system's nl80211 WiFi client.
func NewGeolocationICHNAEAProvider(http *http.Client) (*GeolocationICHNAEAProvider, error) {
	wlan, err := wifi.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create wifi client: %w", err)
	}
	return NewWithScanner(http, wlan)
}

// NewWithScanner returns a provider using the given access point scanner.
func NewWithScanner(http *http.Client, wlan Scanner) (*GeolocationICHNAEAProvider, error) {
	if http == nil {
		return nil, errors.New("http client is required")
	}
	if wlan == nil {
		return nil, errors.New("wifi scanner is required")
	}
	return &GeolocationICHNAEAProvider{
		name:     name,
		http:     http,
		wlan:     wlan,
		endpoint: apiEndpoint,
	}, nil
}

func (p *GeolocationICHNAEAProvider) Name() string {
	return p.name
}

func (p *GeolocationICHNAEAProvider) HighAccuracy() bool {
	return false
}

// CurrentPosition scans for access points and asks the API for a position. If no access point is
// visible, the API falls back to the IP address.
func (p *GeolocationICHNAEAProvider) CurrentPosition(ctx context.Context, _ geolocation.PositionOptions) (geo.Coordinate, error) {
	aps, err := p.wifiAccessPoints()
	if err != nil {
		aps = nil
	}

	body := bytes.NewBuffer(nil)
	if err = json.NewEncoder(body).Encode(request{ConsiderIP: true, Accesspoints: aps}); err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to encode wifi list to JSON: %w", err)
	}

	result := new(APIResult)
	if _, err = p.http.PostWithTimeout(ctx, p.endpoint, result, body,
		map[string]string{"Content-Type": "application/json"}, lookupTimeout); err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to get geolocation data from API: %w", err)
	}
	if result.Accuracy <= 0 {
		return geo.Coordinate{}, fmt.Errorf("%w: API returned no accuracy", geolocation.ErrPositionUnavailable)
	}

	return geo.Coordinate{
		Latitude:       geo.Truncate(result.Location.Latitude, geolocation.TruncPrecision),
		Longitude:      geo.Truncate(result.Location.Longitude, geolocation.TruncPrecision),
		AccuracyMeters: result.Accuracy,
	}, nil
}

// wifiAccessPoints returns the access points of all station interfaces, skipping hidden networks
// and networks that opted out of mapping with the _nomap suffix.
func (p *GeolocationICHNAEAProvider) wifiAccessPoints() ([]WirelessNetwork, error) {
	ifaces, err := p.wlan.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	var list []WirelessNetwork
	for _, iface := range ifaces {
		if iface.Type != wifi.InterfaceTypeStation {
			continue
		}
		aps, err := p.wlan.AccessPoints(iface)
		if err != nil {
			continue
		}
		for _, ap := range aps {
			if ap.SSID == "" || ap.SSID[0] == '\x00' || strings.HasSuffix(ap.SSID, "_nomap") {
				continue
			}
			list = append(list, WirelessNetwork{
				SignalStrength: ap.Signal / 100,
				MACAddress:     ap.BSSID.String(),
				LastSeen:       ap.LastSeen.Milliseconds(),
			})
		}
	}
	return list, nil
}
