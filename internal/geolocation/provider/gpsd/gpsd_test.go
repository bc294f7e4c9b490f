// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package gpsd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/wneessen/propertyloc/internal/geolocation"
)

const (
	tpvFull  = `{"class":"TPV","device":"/dev/ttyACM0","mode":3,"time":"2025-11-24T10:44:41.000Z","lat":6.524379,"lon":3.379206,"alt":41.0,"epx":8.100,"epy":11.400,"epv":27.600,"eph":17.670}`
	tpvNoFix = `{"class":"TPV","device":"/dev/ttyACM0","mode":1,"time":"2025-11-24T10:44:40.000Z"}`
)

func TestNewClient(t *testing.T) {
	client := NewClient("localhost", "2947")
	if client.Addr != "localhost:2947" {
		t.Errorf("expected client address to be localhost:2947, got %s", client.Addr)
	}
}

func TestClient_Poll(t *testing.T) {
	t.Run("poll succeeds with different TPV results", func(t *testing.T) {
		tests := []struct {
			name string
			tpv  []string
			acc  float64
			mode int
		}{
			{"full response", []string{tpvFull}, 17.67, 3},
			{
				"no Eph use Epx/Epy",
				[]string{`{"class":"TPV","mode":3,"lat":6.524379,"lon":3.379206,"epx":8.100,"epy":11.400}`},
				math.Hypot(8.100, 11.400), 3,
			},
			{
				"fallback to 3d fix accuracy",
				[]string{`{"class":"TPV","mode":3,"lat":6.524379,"lon":3.379206}`},
				fallbackAccuracy3DFix, 3,
			},
			{
				"fallback to 2d fix accuracy",
				[]string{`{"class":"TPV","mode":2,"lat":6.524379,"lon":3.379206}`},
				fallbackAccuracy2DFix, 2,
			},
			{"waits for the first fix", []string{tpvNoFix, tpvFull}, 17.67, 3},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				client := NewClient(splitAddr(t, startMockGPSD(t, tc.tpv...)))
				fix, err := client.Poll(t.Context())
				if err != nil {
					t.Fatalf("failed to poll for fix: %v", err)
				}
				if fix.Lat != 6.524379 || fix.Lon != 3.379206 {
					t.Errorf("unexpected position: %f, %f", fix.Lat, fix.Lon)
				}
				if fix.Acc != tc.acc {
					t.Errorf("expected accuracy to be %f, got %f", tc.acc, fix.Acc)
				}
				if fix.Mode != tc.mode {
					t.Errorf("expected mode to be %d, got %d", tc.mode, fix.Mode)
				}
			})
		}
	})
	t.Run("poll reports missing fix", func(t *testing.T) {
		client := NewClient(splitAddr(t, startMockGPSD(t, tpvNoFix)))
		if _, err := client.Poll(t.Context()); !errors.Is(err, ErrNoFix) {
			t.Errorf("expected no fix error, got %v", err)
		}
	})
	t.Run("poll with broken JSON returned", func(t *testing.T) {
		client := NewClient(splitAddr(t, startMockGPSD(t, "invalid")))
		if _, err := client.Poll(t.Context()); !errors.Is(err, ErrNoTPV) {
			t.Errorf("expected no TPV error, got %v", err)
		}
	})
	t.Run("poll with a canceled context", func(t *testing.T) {
		client := NewClient(splitAddr(t, startMockGPSD(t, tpvFull)))
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		if _, err := client.Poll(ctx); err == nil {
			t.Fatal("expected Poll() to fail with context canceled")
		}
	})
	t.Run("poll without daemon fails", func(t *testing.T) {
		client := NewClient("127.0.0.1", "1")
		if _, err := client.Poll(t.Context()); err == nil {
			t.Fatal("expected Poll() to fail")
		}
	})
}

func TestGeolocationGPSDProvider_CurrentPosition(t *testing.T) {
	t.Run("fix is returned as coordinate", func(t *testing.T) {
		provider := NewGeolocationGPSDProvider(splitAddr(t, startMockGPSD(t, tpvFull)))
		if provider.Name() != name || !provider.HighAccuracy() {
			t.Fatalf("unexpected provider metadata: %s/%t", provider.Name(), provider.HighAccuracy())
		}
		coord, err := provider.CurrentPosition(t.Context(), geolocation.PositionOptions{})
		if err != nil {
			t.Fatalf("failed to get position: %s", err)
		}
		if coord.AccuracyMeters != 17.67 {
			t.Errorf("expected accuracy to be 17.67, got %f", coord.AccuracyMeters)
		}
		want := time.Date(2025, 11, 24, 10, 44, 41, 0, time.UTC)
		if !coord.CapturedAt.Equal(want) {
			t.Errorf("expected capture time %s, got %s", want, coord.CapturedAt)
		}
	})
	t.Run("no fix is an unavailable position", func(t *testing.T) {
		provider := NewGeolocationGPSDProvider(splitAddr(t, startMockGPSD(t, tpvNoFix)))
		_, err := provider.CurrentPosition(t.Context(), geolocation.PositionOptions{})
		if geolocation.Classify(err) != geolocation.PositionUnavailable {
			t.Errorf("expected position unavailable, got %v", err)
		}
	})
}

func splitAddr(t *testing.T, addr string) (string, string) {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("failed to parse mock gpsd address: %v", err)
	}
	return host, port
}

// startMockGPSD accepts a single connection, waits for the WATCH command, writes the given
// reports and closes the connection.
func startMockGPSD(t *testing.T, reports ...string) string {
	t.Helper()

	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("failed to listen for mock gpsd: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer func() {
			_ = conn.Close()
		}()

		_ = conn.SetReadDeadline(time.Now().Add(time.Millisecond * 200))
		_, _ = bufio.NewReader(conn).ReadString('\n')
		_ = conn.SetReadDeadline(time.Time{})

		_, _ = fmt.Fprintln(conn, `{"class":"VERSION","release":"gpsd 3.26","proto_major":3,"proto_minor":14}`)
		for _, report := range reports {
			_, _ = fmt.Fprintln(conn, report)
		}
	}()

	t.Cleanup(func() {
		if closeErr := ln.Close(); closeErr != nil {
			t.Logf("failed to close mock gpsd listener: %s", closeErr)
		}
		wg.Wait()
	})

	return ln.Addr().String()
}
