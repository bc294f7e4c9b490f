// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geolocation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

// ErrorKind classifies why an acquisition failed, independent of the position source.
type ErrorKind int

const (
	PositionUnavailable ErrorKind = iota + 1
	PermissionDenied
	Timeout
	Unsupported
)

var (
	// ErrPermissionDenied is returned by sources when the platform refused access to the position.
	ErrPermissionDenied = errors.New("permission to access the position was denied")
	// ErrPositionUnavailable is returned by sources that could not determine a position.
	ErrPositionUnavailable = errors.New("position is unavailable")
)

func (k ErrorKind) String() string {
	switch k {
	case PermissionDenied:
		return "permission_denied"
	case PositionUnavailable:
		return "position_unavailable"
	case Timeout:
		return "timeout"
	case Unsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Error is the error returned by Acquirer.Acquire.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geolocation %s: %s", e.Kind, e.Err)
	}
	return "geolocation " + e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind of err, or zero if err is not a geolocation error.
func KindOf(err error) ErrorKind {
	var geoErr *Error
	if errors.As(err, &geoErr) {
		return geoErr.Kind
	}
	return 0
}

// Classify maps a source error to an ErrorKind. Sources signal permission problems with
// ErrPermissionDenied or fs.ErrPermission, everything else that is not a deadline is treated as
// an unavailable position.
func Classify(err error) ErrorKind {
	var geoErr *Error
	switch {
	case errors.As(err, &geoErr):
		return geoErr.Kind
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, fs.ErrPermission):
		return PermissionDenied
	case errors.Is(err, context.DeadlineExceeded):
		return Timeout
	default:
		return PositionUnavailable
	}
}
