// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geolocation_file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wneessen/propertyloc/internal/geolocation"
)

const (
	testLat = 6.4281
	testLon = 3.4219
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "geolocation")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write geolocation file: %s", err)
	}
	return path
}

func TestGeolocationFileProvider_Name(t *testing.T) {
	provider := NewGeolocationFileProvider("geolocation")
	if !strings.EqualFold(provider.Name(), name) {
		t.Errorf("expected provider name to be %s, got %s", name, provider.Name())
	}
	if provider.HighAccuracy() {
		t.Error("expected geolocation file to be a network class source")
	}
}

func TestGeolocationFileProvider_readFile(t *testing.T) {
	t.Run("read file succeeds", func(t *testing.T) {
		provider := NewGeolocationFileProvider(writeFile(t, "# Victoria Island\n6.4281, 3.4219\n"))
		lat, lon, err := provider.readFile()
		if err != nil {
			t.Fatalf("failed to read file: %s", err)
		}
		if lat != testLat {
			t.Errorf("expected latitude to be %f, got %f", testLat, lat)
		}
		if lon != testLon {
			t.Errorf("expected longitude to be %f, got %f", testLon, lon)
		}
	})
	t.Run("read of non-existent file fails", func(t *testing.T) {
		provider := NewGeolocationFileProvider(filepath.Join(t.TempDir(), "non-existent"))
		if _, _, err := provider.readFile(); err == nil {
			t.Error("expected error, but didn't get one")
		}
	})
	t.Run("invalid content fails", func(t *testing.T) {
		tests := []struct {
			name    string
			content string
		}{
			{"only comments", "# nothing here\n"},
			{"broken latitude", "abc,3.4219\n"},
			{"broken longitude", "6.4281,abc\n"},
			{"out of range", "96.4281,3.4219\n"},
			{"three fields", "6.4281,3.4219,10\n"},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				provider := NewGeolocationFileProvider(writeFile(t, tc.content))
				_, _, err := provider.readFile()
				if !errors.Is(err, ErrNoCoordinates) {
					t.Errorf("expected error to be %s, got %v", ErrNoCoordinates, err)
				}
			})
		}
	})
}

func TestGeolocationFileProvider_CurrentPosition(t *testing.T) {
	t.Run("position is returned with file accuracy", func(t *testing.T) {
		provider := NewGeolocationFileProvider(writeFile(t, "6.4281,3.4219"))
		coord, err := provider.CurrentPosition(t.Context(), geolocation.PositionOptions{})
		if err != nil {
			t.Fatalf("failed to get position: %s", err)
		}
		if coord.Latitude != testLat || coord.Longitude != testLon {
			t.Errorf("unexpected coordinate: %+v", coord)
		}
		if coord.AccuracyMeters != Accuracy {
			t.Errorf("expected accuracy to be %d, got %f", Accuracy, coord.AccuracyMeters)
		}
	})
	t.Run("missing file is an unavailable position", func(t *testing.T) {
		provider := NewGeolocationFileProvider(filepath.Join(t.TempDir(), "non-existent"))
		_, err := provider.CurrentPosition(t.Context(), geolocation.PositionOptions{})
		if geolocation.Classify(err) != geolocation.PositionUnavailable {
			t.Errorf("expected position unavailable, got %v", err)
		}
	})
	t.Run("unreadable file is a denied permission", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("file permissions are not enforced for root")
		}
		path := writeFile(t, "6.4281,3.4219")
		if err := os.Chmod(path, 0o000); err != nil {
			t.Fatalf("failed to change file mode: %s", err)
		}
		provider := NewGeolocationFileProvider(path)
		_, err := provider.CurrentPosition(t.Context(), geolocation.PositionOptions{})
		if geolocation.Classify(err) != geolocation.PermissionDenied {
			t.Errorf("expected permission denied, got %v", err)
		}
	})
	t.Run("canceled context fails", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		provider := NewGeolocationFileProvider(writeFile(t, "6.4281,3.4219"))
		if _, err := provider.CurrentPosition(ctx, geolocation.PositionOptions{}); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context canceled, got %v", err)
		}
	})
}
