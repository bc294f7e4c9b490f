// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"golang.org/x/text/language"

	"github.com/wneessen/propertyloc/internal/directory"
	"github.com/wneessen/propertyloc/internal/geocode"
	geocodeearth "github.com/wneessen/propertyloc/internal/geocode/provider/geocode-earth"
	"github.com/wneessen/propertyloc/internal/geocode/provider/google"
	"github.com/wneessen/propertyloc/internal/geocode/provider/opencage"
	nominatim "github.com/wneessen/propertyloc/internal/geocode/provider/osm-nominatim"
	"github.com/wneessen/propertyloc/internal/geolocation"
	"github.com/wneessen/propertyloc/internal/geolocation/provider/geoclue"
	"github.com/wneessen/propertyloc/internal/geolocation/provider/geoip"
	"github.com/wneessen/propertyloc/internal/geolocation/provider/geolocation_file"
	"github.com/wneessen/propertyloc/internal/geolocation/provider/gpsd"
	"github.com/wneessen/propertyloc/internal/geolocation/provider/ichnaea"
	"github.com/wneessen/propertyloc/internal/gmaps"
	"github.com/wneessen/propertyloc/internal/http"
	"github.com/wneessen/propertyloc/internal/logger"
	"github.com/wneessen/propertyloc/internal/places"
	"github.com/wneessen/propertyloc/internal/property"
)

func (s *Service) selectDirectory() (*directory.Directory, error) {
	if s.config.Directory.File != "" {
		return directory.LoadFile(s.config.Directory.File)
	}
	return directory.Default()
}

// selectPositionSources returns the enabled position sources. No sources is valid: acquisitions
// then fail as unsupported.
func (s *Service) selectPositionSources() []geolocation.PositionSource {
	httpClient := http.New(s.logger)
	var sources []geolocation.PositionSource

	if !s.config.GeoLocation.DisableFile {
		sources = append(sources, geolocation_file.NewGeolocationFileProvider(s.config.GeoLocation.File))
	}

	if !s.config.GeoLocation.DisableGPSD {
		sources = append(sources, gpsd.NewGeolocationGPSDProvider(s.config.GeoLocation.GPSDHost,
			s.config.GeoLocation.GPSDPort))
	}

	if !s.config.GeoLocation.DisableGeoClue {
		sources = append(sources, geoclue.NewGeolocationGeoClueProvider())
	}

	if !s.config.GeoLocation.DisableGeoIP {
		sources = append(sources, geoip.NewGeolocationGeoIPProvider(httpClient))
	}

	if !s.config.GeoLocation.DisableICHNAEA {
		mls, err := ichnaea.NewGeolocationICHNAEAProvider(httpClient)
		if err != nil {
			s.logger.Error("failed to create ICHNAEA provider", logger.Err(err))
		} else {
			sources = append(sources, mls)
		}
	}

	if len(sources) == 0 {
		s.logger.Warn("no position sources enabled, location acquisition is unsupported")
	}
	return sources
}

func (s *Service) selectGeocodeProvider(ctx context.Context) (geocode.Geocoder, error) {
	var lang language.Tag
	if s.translator != nil {
		lang = s.translator.Tag()
	}
	httpClient := http.New(s.logger)

	var coder geocode.Geocoder
	switch s.config.Geocoder.Provider {
	case "osm-nominatim":
		coder = nominatim.New(httpClient, lang)
	case "opencage":
		if s.config.Geocoder.APIKey == "" {
			return nil, fmt.Errorf("opencage geocoder requires an API key")
		}
		coder = opencage.New(httpClient, lang, s.config.Geocoder.APIKey)
	case "geocode-earth":
		if s.config.Geocoder.APIKey == "" {
			return nil, fmt.Errorf("geocode-earth geocoder requires an API key")
		}
		coder = geocodeearth.New(httpClient, lang, s.config.Geocoder.APIKey)
	case "google":
		client, err := gmaps.NewClient(gmaps.Options{APIKey: s.config.Geocoder.APIKey})
		if err != nil {
			return nil, err
		}
		coder = google.New(client, lang)
	default:
		return nil, fmt.Errorf("unsupported geocoder type: %s", s.config.Geocoder.Provider)
	}

	store, err := s.selectGeocodeStore(ctx)
	if err != nil {
		return nil, err
	}
	cached := geocode.NewCachedGeocoder(coder, store, s.logger, s.config.Geocoder.CacheHitTTL,
		s.config.Geocoder.CacheMissTTL)
	cached.SetObserver(s.metrics)
	return cached, nil
}

// selectGeocodeStore returns a Redis backed store if an address is configured, so the cache is
// shared by all instances. Otherwise an in-process store is used and pruned periodically.
func (s *Service) selectGeocodeStore(ctx context.Context) (geocode.Store, error) {
	if s.config.Redis.Addr == "" {
		s.cache = geocode.NewMemoryStore(nil)
		return s.cache, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     s.config.Redis.Addr,
		Password: s.config.Redis.Password,
		DB:       s.config.Redis.DB,
	})
	store := geocode.NewRedisStore(client)
	if err := store.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	s.redis = client
	s.logger.Debug("using redis geocode cache", slog.String("addr", s.config.Redis.Addr))
	return store, nil
}

// selectPlacesLoader returns nil if no Places API key is configured.
func (s *Service) selectPlacesLoader() *places.Loader {
	if s.config.Places.APIKey == "" {
		s.logger.Info("no places API key configured, address suggestions are disabled")
		return nil
	}
	lang := language.Make(s.config.Places.Language)
	return places.NewLoader(s.logger, places.GoogleInit(gmaps.Options{APIKey: s.config.Places.APIKey}, lang))
}

func (s *Service) selectRepository(ctx context.Context) (property.Repository, error) {
	if s.config.Database.URL == "" {
		s.logger.Warn("no database configured, property locations are kept in memory")
		return property.NewMemoryRepository(nil), nil
	}

	pool, err := property.NewPool(ctx, s.config.Database.URL)
	if err != nil {
		return nil, err
	}
	if !s.config.Database.SkipMigrate {
		if err = property.Migrate(ctx, pool, s.logger); err != nil {
			pool.Close()
			return nil, err
		}
	}
	s.pool = pool
	return property.NewPostgresRepository(pool), nil
}
