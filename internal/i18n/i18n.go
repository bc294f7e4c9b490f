// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/Xuanwo/go-locale"
	"github.com/vorlif/humanize"
	"github.com/vorlif/spreak"
	"golang.org/x/text/language"
)

//go:embed locale/*
var locales embed.FS

// NigerianPidgin is the language tag of the bundled Pidgin catalog.
var NigerianPidgin = language.Make("pcm")

// Translator localizes user-facing messages and renders relative times.
type Translator struct {
	*spreak.Localizer
	humanizer *humanize.Humanizer
	tag       language.Tag
}

func New(loc string) (*Translator, error) {
	tag := language.Make(loc)
	var err error
	if loc == "" {
		tag, err = locale.Detect()
		if err != nil {
			tag = language.English // Unable to detect locale, fallback to English
		}
	}

	localeFS, err := fs.Sub(locales, "locale")
	if err != nil {
		return nil, fmt.Errorf("failed to load locales: %w", err)
	}

	bundle, err := spreak.NewBundle(
		spreak.WithSourceLanguage(language.English),
		spreak.WithFallbackLanguage(language.English),
		spreak.WithDomainFs("", localeFS),
		spreak.WithLanguage(tag, NigerianPidgin),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create i18n bundle: %w", err)
	}

	collection, err := humanize.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create humanizer: %w", err)
	}

	return &Translator{
		Localizer: spreak.NewLocalizer(bundle, tag),
		humanizer: collection.CreateHumanizer(tag),
		tag:       tag,
	}, nil
}

// Tag returns the language tag the translator was created for.
func (t *Translator) Tag() language.Tag {
	return t.tag
}

// Since returns a natural description of how long ago t was, e.g. "4 minutes ago".
func (t *Translator) Since(then time.Time) string {
	return t.humanizer.NaturalTime(then)
}
