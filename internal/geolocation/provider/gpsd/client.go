// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package gpsd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"time"
)

const (
	fallbackAccuracy3DFix = 10 // ~10 m typical consumer GPS in open sky
	fallbackAccuracy2DFix = 25 // worse than 3D, but still accurate enough
	watchTimeout          = time.Second * 2

	watchCommand = `?WATCH={"enable":true,"json":true}` + "\n"
)

var (
	// ErrNoFix is returned when gpsd only reported TPVs without a 2D or 3D fix.
	ErrNoFix = errors.New("gpsd has no position fix")
	// ErrNoTPV is returned when the connection ended before gpsd sent any TPV.
	ErrNoTPV = errors.New("no TPV response received from gpsd")
)

// Client is a minimal one-shot gpsd client
type Client struct {
	Addr string
}

// Fix represents a single GPS fix from gpsd.
type Fix struct {
	Lat  float64
	Lon  float64
	Acc  float64
	Mode int
	Time time.Time
}

// tpv matches the subset of gpsd's TPV report we care about.
type tpv struct {
	Class string    `json:"class"`
	Time  time.Time `json:"time"`
	Lat   float64   `json:"lat"`
	Lon   float64   `json:"lon"`
	Mode  int       `json:"mode"`
	Epx   float64   `json:"epx"`
	Epy   float64   `json:"epy"`
	Eph   float64   `json:"eph"`
}

// NewClient constructs a new Client for the given host and port.
func NewClient(host, port string) *Client {
	return &Client{
		Addr: net.JoinHostPort(host, port),
	}
}

// Poll connects to gpsd, enables WATCH mode and returns the first TPV that carries at least a 2D
// fix. It gives up at the context deadline, or after watchTimeout if the context has none.
func (c *Client) Poll(ctx context.Context) (Fix, error) {
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return Fix{}, fmt.Errorf("failed to dial gpsd: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(watchTimeout))
	}

	if _, err = fmt.Fprint(conn, watchCommand); err != nil {
		return Fix{}, fmt.Errorf("failed to send WATCH to gpsd: %w", err)
	}

	sawTPV := false
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var report tpv
		if err = json.Unmarshal(scanner.Bytes(), &report); err != nil || report.Class != "TPV" {
			continue
		}
		sawTPV = true
		if report.Mode < 2 {
			continue
		}
		return Fix{
			Lat:  report.Lat,
			Lon:  report.Lon,
			Acc:  horizontalAccuracyMeters(report),
			Mode: report.Mode,
			Time: report.Time,
		}, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return Fix{}, ctxErr
	}
	if sawTPV {
		return Fix{}, ErrNoFix
	}
	if err = scanner.Err(); err != nil {
		return Fix{}, fmt.Errorf("failed to scan gpsd response: %w", err)
	}
	return Fix{}, ErrNoTPV
}

func horizontalAccuracyMeters(report tpv) float64 {
	switch {
	case report.Eph > 0:
		return report.Eph
	case report.Epx > 0 && report.Epy > 0:
		return math.Hypot(report.Epx, report.Epy)
	case report.Mode == 3:
		return fallbackAccuracy3DFix
	default:
		return fallbackAccuracy2DFix
	}
}
