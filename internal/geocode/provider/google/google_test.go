// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package google

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/text/language"

	"github.com/wneessen/propertyloc/internal/geo"
	"github.com/wneessen/propertyloc/internal/geocode"
	"github.com/wneessen/propertyloc/internal/gmaps"
)

const lekkiResponse = `{
  "status": "OK",
  "results": [{
    "formatted_address": "14 Admiralty Way, Lekki Phase 1, Lekki 106104, Lagos, Nigeria",
    "place_id": "ChIJ-lekki-phase-1",
    "geometry": {"location": {"lat": 6.4474, "lng": 3.4723}},
    "address_components": [
      {"long_name": "14", "short_name": "14", "types": ["street_number"]},
      {"long_name": "Admiralty Way", "short_name": "Admiralty Way", "types": ["route"]},
      {"long_name": "Lekki Phase 1", "short_name": "Lekki Phase 1", "types": ["sublocality_level_1", "sublocality", "political"]},
      {"long_name": "Lekki", "short_name": "Lekki", "types": ["locality", "political"]},
      {"long_name": "Eti-Osa", "short_name": "Eti-Osa", "types": ["administrative_area_level_2", "political"]},
      {"long_name": "Lagos", "short_name": "LA", "types": ["administrative_area_level_1", "political"]},
      {"long_name": "Nigeria", "short_name": "NG", "types": ["country", "political"]}
    ]
  }]
}`

var lekkiCoords = geo.Coordinate{Latitude: 6.4474, Longitude: 3.4723}

func testCoder(t *testing.T, handler http.HandlerFunc) *Google {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := gmaps.NewClient(gmaps.Options{APIKey: "AIza-test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("failed to create maps client: %s", err)
	}
	return New(client, language.English)
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestGoogle_Reverse(t *testing.T) {
	t.Run("reverse geocoding succeeds", func(t *testing.T) {
		var query map[string]string
		coder := testCoder(t, func(w http.ResponseWriter, r *http.Request) {
			query = map[string]string{
				"latlng": r.URL.Query().Get("latlng"),
				"region": r.URL.Query().Get("region"),
			}
			jsonHandler(lekkiResponse)(w, r)
		})
		if coder.Name() != name {
			t.Errorf("expected provider name to be %q, got %q", name, coder.Name())
		}
		addr, err := coder.Reverse(t.Context(), lekkiCoords)
		if err != nil {
			t.Fatal(err)
		}
		if addr.FormattedAddress != "14 Admiralty Way, Lekki Phase 1, Lekki 106104, Lagos, Nigeria" {
			t.Errorf("unexpected formatted address: %q", addr.FormattedAddress)
		}
		if addr.PlaceID != "ChIJ-lekki-phase-1" || addr.Area != "Lekki Phase 1" || addr.LGA != "Eti-Osa" {
			t.Errorf("unexpected address components: %+v", addr)
		}
		if query["region"] != "ng" || query["latlng"] == "" {
			t.Errorf("unexpected query: %v", query)
		}
	})
	t.Run("zero results is no match", func(t *testing.T) {
		coder := testCoder(t, jsonHandler(`{"status":"ZERO_RESULTS","results":[]}`))
		if _, err := coder.Reverse(t.Context(), lekkiCoords); !errors.Is(err, geocode.ErrNoMatch) {
			t.Errorf("expected no match, got %v", err)
		}
	})
	t.Run("denied request fails", func(t *testing.T) {
		coder := testCoder(t, jsonHandler(`{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`))
		_, err := coder.Reverse(t.Context(), lekkiCoords)
		if err == nil || errors.Is(err, geocode.ErrNoMatch) {
			t.Errorf("expected API error, got %v", err)
		}
	})
}
