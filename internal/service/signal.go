// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

type signalSource interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

type stdLibSignalSource struct{}

func (stdLibSignalSource) Notify(c chan<- os.Signal, sig ...os.Signal) {
	signal.Notify(c, sig...)
}

func (stdLibSignalSource) Stop(c chan<- os.Signal) {
	signal.Stop(c)
}

// HandleSignals handles the runtime signals. USR1 drops the cached position fix and prunes the
// geocode cache, USR2 logs the state of the components.
func (s *Service) HandleSignals(ctx context.Context, sigChan chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigChan:
			switch sig {
			case syscall.SIGUSR1:
				s.refresh(ctx)
			case syscall.SIGUSR2:
				s.logState()
			}
		}
	}
}

func (s *Service) refresh(ctx context.Context) {
	if s.acquirer != nil {
		s.acquirer.Forget()
	}
	if s.cache != nil {
		s.pruneGeocodeCache(ctx)
	}
	s.logger.Info("dropped cached position fix")
}

func (s *Service) logState() {
	placesState := "disabled"
	if s.loader != nil {
		placesState = s.loader.State().String()
	}
	cacheEntries := -1
	if s.cache != nil {
		cacheEntries = s.cache.Len()
	}
	geocoder := ""
	if s.geocoder != nil {
		geocoder = s.geocoder.Name()
	}
	s.logger.Info("current service state", slog.String("places", placesState),
		slog.String("geocoder", geocoder), slog.Int("geocode_cache_entries", cacheEntries),
		slog.Bool("location_supported", s.acquirer != nil && s.acquirer.Supported()))
}
