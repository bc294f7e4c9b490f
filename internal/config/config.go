// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kkyr/fig"
)

const (
	configEnv = "PROPERTYLOC"

	// CountryCode is the ISO 3166-1 alpha-2 code all provider lookups are restricted to.
	CountryCode = "ng"
)

var validGeocoders = []string{"google", "osm-nominatim", "opencage", "geocode-earth"}

// Config represents the application's configuration structure.
type Config struct {
	Locale   string     `fig:"locale"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`

	HTTP struct {
		Addr            string        `fig:"addr" default:":8080"`
		ReadTimeout     time.Duration `fig:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `fig:"write_timeout" default:"15s"`
		ShutdownTimeout time.Duration `fig:"shutdown_timeout" default:"10s"`
		AllowOrigins    []string      `fig:"allow_origins"`
		// Requests per second per client IP on the places endpoints
		PlacesRateLimit float64 `fig:"places_rate_limit" default:"5"`
		PlacesRateBurst int     `fig:"places_rate_burst" default:"10"`
	} `fig:"http"`

	Places struct {
		APIKey   string `fig:"apikey"`
		Language string `fig:"language" default:"en"`
	} `fig:"places"`

	Geocoder struct {
		// Allowed values: google, osm-nominatim, opencage, geocode-earth
		Provider      string        `fig:"provider" default:"osm-nominatim"`
		APIKey        string        `fig:"apikey"`
		CacheHitTTL   time.Duration `fig:"cache_hit_ttl" default:"24h"`
		CacheMissTTL  time.Duration `fig:"cache_miss_ttl" default:"15m"`
		PruneInterval time.Duration `fig:"prune_interval" default:"10m"`
	} `fig:"geocoder"`

	GeoLocation struct {
		File           string `fig:"file"`
		GPSDHost       string `fig:"gpsd_host" default:"localhost"`
		GPSDPort       string `fig:"gpsd_port" default:"2947"`
		DisableGPSD    bool   `fig:"disable_gpsd"`
		DisableGeoClue bool   `fig:"disable_geoclue"`
		DisableGeoIP   bool   `fig:"disable_geoip"`
		DisableICHNAEA bool   `fig:"disable_ichnaea"`
		DisableFile    bool   `fig:"disable_geolocation_file"`
		// Drop cached position fixes when the host resumes from suspend
		MonitorSleep   bool   `fig:"monitor_sleep"`
	} `fig:"geolocation"`

	Directory struct {
		// Optional YAML dataset replacing the embedded one
		File string `fig:"file"`
	} `fig:"directory"`

	Database struct {
		URL string `fig:"url"`
		// Migrations run on startup unless skipped
		SkipMigrate bool `fig:"skip_migrate"`
	} `fig:"database"`

	Redis struct {
		Addr     string `fig:"addr"`
		Password string `fig:"password"`
		DB       int    `fig:"db" default:"0"`
	} `fig:"redis"`

	Map struct {
		Zoom int `fig:"zoom" default:"16"`
	} `fig:"map"`
}

// NewFromFile loads the configuration from the given config file, overlaid by the environment.
func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = loadDotEnv(); err != nil {
		return conf, err
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

// New loads the configuration from defaults and the environment only.
func New() (*Config, error) {
	conf := new(Config)
	if err := loadDotEnv(); err != nil {
		return conf, err
	}
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	if c.Locale == "" {
		c.Locale = getLocale()
	}
	c.Geocoder.Provider = strings.ToLower(c.Geocoder.Provider)
	if !slices.Contains(validGeocoders, c.Geocoder.Provider) {
		return fmt.Errorf("invalid geocoder provider: %s", c.Geocoder.Provider)
	}
	switch c.Geocoder.Provider {
	case "opencage", "geocode-earth":
		if c.Geocoder.APIKey == "" {
			return fmt.Errorf("geocoder provider %s requires an API key", c.Geocoder.Provider)
		}
	case "google":
		if c.Geocoder.APIKey == "" {
			c.Geocoder.APIKey = c.Places.APIKey
		}
		if c.Geocoder.APIKey == "" {
			return errors.New("geocoder provider google requires an API key")
		}
	}
	if c.Geocoder.CacheHitTTL <= 0 || c.Geocoder.CacheMissTTL <= 0 {
		return fmt.Errorf("invalid geocoder cache TTLs: hit=%s, miss=%s", c.Geocoder.CacheHitTTL,
			c.Geocoder.CacheMissTTL)
	}
	if c.Map.Zoom < 1 || c.Map.Zoom > 21 {
		return fmt.Errorf("invalid map zoom level: %d", c.Map.Zoom)
	}
	if c.HTTP.PlacesRateLimit <= 0 || c.HTTP.PlacesRateBurst < 1 {
		return fmt.Errorf("invalid places rate limit: %f/%d", c.HTTP.PlacesRateLimit, c.HTTP.PlacesRateBurst)
	}
	if len(c.HTTP.AllowOrigins) == 0 {
		c.HTTP.AllowOrigins = []string{"*"}
	}
	if c.GeoLocation.File == "" {
		home, _ := os.UserHomeDir()
		c.GeoLocation.File = filepath.Join(home, ".config", "propertyloc", "geolocation")
	}

	return nil
}

// loadDotEnv reads a .env file from the working directory into the process environment, if
// present. Variables already set in the environment take precedence.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

func getLocale() string {
	locale := os.Getenv("LC_MESSAGES")
	if idx := strings.Index(locale, "."); idx != -1 {
		lang := locale[:idx]
		return strings.ReplaceAll(lang, "_", "-")
	}
	return locale
}
