// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package service wires the address capture components into the HTTP service.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wneessen/propertyloc/internal/api"
	"github.com/wneessen/propertyloc/internal/config"
	"github.com/wneessen/propertyloc/internal/geocode"
	"github.com/wneessen/propertyloc/internal/geolocation"
	"github.com/wneessen/propertyloc/internal/i18n"
	"github.com/wneessen/propertyloc/internal/logger"
	"github.com/wneessen/propertyloc/internal/observability"
	"github.com/wneessen/propertyloc/internal/places"
)

const placesStateInterval = 15 * time.Second

type Service struct {
	SignalSrc signalSource

	config     *config.Config
	logger     *logger.Logger
	metrics    *observability.Metrics
	scheduler  gocron.Scheduler
	translator *i18n.Translator

	acquirer *geolocation.Acquirer
	geocoder geocode.Geocoder
	cache    *geocode.MemoryStore
	redis    *redis.Client
	loader   *places.Loader
	pool     *pgxpool.Pool
	server   *api.Server
}

func New(conf *config.Config, log *logger.Logger, t *i18n.Translator) (*Service, error) {
	if log == nil {
		return nil, errors.New("logger is required")
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	service := &Service{
		SignalSrc:  stdLibSignalSource{},
		config:     conf,
		logger:     log,
		metrics:    observability.NewMetrics(),
		scheduler:  scheduler,
		translator: t,
	}
	return service, nil
}

// Run sets up all components, serves HTTP and blocks until the context is cancelled or the
// server fails.
func (s *Service) Run(ctx context.Context) error {
	defer s.close()
	if err := s.setup(ctx); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.createScheduledJob(ctx, s.config.Geocoder.PruneInterval, s.pruneGeocodeCache,
			"geocode_cache_prune_job"); err != nil {
			return err
		}
	}
	if s.loader != nil {
		s.loader.Start(ctx)
		if err := s.createScheduledJob(ctx, placesStateInterval, s.reportPlacesState,
			"places_loader_state_job"); err != nil {
			return err
		}
	}
	s.scheduler.Start()

	sigChan := make(chan os.Signal, 1)
	s.SignalSrc.Notify(sigChan, syscall.SIGUSR1, syscall.SIGUSR2)
	defer s.SignalSrc.Stop(sigChan)
	go s.HandleSignals(ctx, sigChan)

	if s.config.GeoLocation.MonitorSleep {
		go s.monitorSleepResume(ctx)
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := s.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			runErr = fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.HTTP.ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("failed to shut down http server", logger.Err(err))
	}
	if err := s.scheduler.Shutdown(); err != nil {
		return errors.Join(runErr, fmt.Errorf("failed to shut down scheduler: %w", err))
	}
	return runErr
}

// setup creates the components from the configuration.
func (s *Service) setup(ctx context.Context) error {
	dir, err := s.selectDirectory()
	if err != nil {
		return fmt.Errorf("failed to load location directory: %w", err)
	}

	s.acquirer = geolocation.New(s.logger, s.selectPositionSources())

	s.geocoder, err = s.selectGeocodeProvider(ctx)
	if err != nil {
		return fmt.Errorf("failed to create geocode provider: %w", err)
	}

	repo, err := s.selectRepository(ctx)
	if err != nil {
		return fmt.Errorf("failed to create property repository: %w", err)
	}

	deps := api.Deps{
		Config:     s.config,
		Logger:     s.logger,
		Translator: s.translator,
		Metrics:    s.metrics,
		Directory:  dir,
		Locator:    s.acquirer,
		Geocoder:   s.geocoder,
		Properties: repo,
	}
	if s.loader = s.selectPlacesLoader(); s.loader != nil {
		deps.Places = places.NewClient(s.loader)
	}

	s.server, err = api.NewServer(deps)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}
	return nil
}

func (s *Service) close() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("failed to close redis client", logger.Err(err))
		}
	}
}

func (s *Service) createScheduledJob(ctx context.Context, interval time.Duration, task func(context.Context),
	jobName string,
) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(jobName),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", jobName, err)
	}
	return nil
}

// pruneGeocodeCache removes expired entries from the in-process geocode cache.
func (s *Service) pruneGeocodeCache(ctx context.Context) {
	removed, err := s.cache.Prune(ctx)
	if err != nil {
		s.logger.Error("failed to prune geocode cache", logger.Err(err))
		return
	}
	s.logger.Debug("pruned geocode cache", slog.Int("removed", removed), slog.Int("remaining", s.cache.Len()))
}

func (s *Service) reportPlacesState(context.Context) {
	s.metrics.SetPlacesLoaderState(int(s.loader.State()))
}
