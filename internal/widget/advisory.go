// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package widget

import (
	"math"

	"github.com/wneessen/propertyloc/internal/geo"
	"github.com/wneessen/propertyloc/internal/geolocation"
)

// Level is the severity of an advisory.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

const (
	CodeLowAccuracy            = "low_accuracy"
	CodeNoMatch                = "no_match"
	CodeSuggestionsUnavailable = "suggestions_unavailable"
)

// Advisory is a localized message shown next to the field. Manual entry stays possible whatever
// the advisory says.
type Advisory struct {
	Code        string `json:"code"`
	Level       Level  `json:"level"`
	Message     string `json:"message"`
	Dismissible bool   `json:"dismissible"`
}

func (w *Widget) errorAdvisory(kind geolocation.ErrorKind) Advisory {
	tr := w.opts.Translator
	var msg string
	switch kind {
	case geolocation.PermissionDenied:
		if w.opts.Device == geo.Mobile {
			msg = tr.Get("Location access was denied. Turn on location services for your browser in your phone settings, or type the address.")
		} else {
			msg = tr.Get("Location access was denied. Allow location access for this site in your browser settings, or type the address.")
		}
	case geolocation.Timeout:
		msg = tr.Get("Finding your location took too long. Try again, or type the address.")
	case geolocation.Unsupported:
		msg = tr.Get("This device does not support location access. Please type the address.")
	default:
		kind = geolocation.PositionUnavailable
		msg = tr.Get("Your location could not be determined. Please type the address.")
	}
	return Advisory{Code: kind.String(), Level: LevelError, Message: msg, Dismissible: true}
}

func (w *Widget) lowAccuracyAdvisory(accuracy float64) Advisory {
	return Advisory{
		Code:        CodeLowAccuracy,
		Level:       LevelWarning,
		Message:     w.opts.Translator.Getf("Your location is only accurate to about %d m. Please check the address.", int(math.Round(accuracy))),
		Dismissible: true,
	}
}

func (w *Widget) noMatchAdvisory() Advisory {
	return Advisory{
		Code:        CodeNoMatch,
		Level:       LevelInfo,
		Message:     w.opts.Translator.Get("No street address was found for this location. The coordinates were kept."),
		Dismissible: true,
	}
}

func (w *Widget) placesUnavailableAdvisory() Advisory {
	return Advisory{
		Code:        CodeSuggestionsUnavailable,
		Level:       LevelWarning,
		Message:     w.opts.Translator.Get("Address suggestions are unavailable. Please type the address."),
		Dismissible: true,
	}
}
