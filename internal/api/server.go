// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package api exposes the address capture components over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/wneessen/propertyloc/internal/config"
	"github.com/wneessen/propertyloc/internal/directory"
	"github.com/wneessen/propertyloc/internal/geocode"
	"github.com/wneessen/propertyloc/internal/i18n"
	"github.com/wneessen/propertyloc/internal/logger"
	"github.com/wneessen/propertyloc/internal/observability"
	"github.com/wneessen/propertyloc/internal/places"
	"github.com/wneessen/propertyloc/internal/property"
	"github.com/wneessen/propertyloc/internal/widget"
)

// PlacesClient is the places client as used by the API.
type PlacesClient interface {
	widget.PlaceFinder
	State() places.State
}

// Deps are the components served by the API. Locator, Geocoder and Places are optional.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	Translator *i18n.Translator
	Metrics    *observability.Metrics
	Directory  *directory.Directory
	Locator    widget.Locator
	Geocoder   geocode.Geocoder
	Places     PlacesClient
	Properties property.Repository
}

// Server is the HTTP server of the service.
type Server struct {
	deps       Deps
	engine     *gin.Engine
	httpServer *http.Server
}

func NewServer(deps Deps) (*Server, error) {
	if deps.Config == nil || deps.Logger == nil || deps.Translator == nil {
		return nil, errors.New("config, logger and translator are required")
	}
	if deps.Directory == nil || deps.Properties == nil || deps.Metrics == nil {
		return nil, errors.New("directory, property repository and metrics are required")
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), RequestLogger(deps.Logger), RequestMetrics(deps.Metrics), corsMiddleware(deps.Config))

	server := &Server{
		deps:   deps,
		engine: engine,
		httpServer: &http.Server{
			Addr:         deps.Config.HTTP.Addr,
			Handler:      engine,
			ReadTimeout:  deps.Config.HTTP.ReadTimeout,
			WriteTimeout: deps.Config.HTTP.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
	}
	server.routes()
	return server, nil
}

func (s *Server) routes() {
	limiter := NewIPRateLimiter(rate.Limit(s.deps.Config.HTTP.PlacesRateLimit), s.deps.Config.HTTP.PlacesRateBurst,
		s.deps.Logger)

	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/readyz", s.handleReady)
	s.engine.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))

	v1 := s.engine.Group("/api/v1")

	locations := v1.Group("/locations")
	locations.GET("/search", s.handleSearch)
	locations.GET("/states", s.handleStates)
	locations.GET("/states/:state/lgas", s.handleLGAs)
	locations.GET("/cities", s.handleCities)
	locations.GET("/cities/:city/areas", s.handleAreas)
	locations.GET("/areas/:area/landmarks", s.handleLandmarks)

	v1.POST("/geolocation/acquire", s.handleAcquire)
	v1.POST("/geolocation/pick", s.handlePick)
	v1.GET("/geocode/reverse", s.handleReverse)

	placesGroup := v1.Group("/places", limiter.RateLimit())
	placesGroup.GET("/autocomplete", s.handleAutocomplete)
	placesGroup.GET("/:placeId", s.handlePlace)

	v1.POST("/disclosure/preview", s.handleDisclosurePreview)
	v1.GET("/properties/:id/location", s.handlePropertyLocation)
	v1.PUT("/properties/:id/location", s.handleSavePropertyLocation)
}

// Start begins listening. It returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.deps.Logger.Info("http server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func corsMiddleware(conf *config.Config) gin.HandlerFunc {
	corsConf := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Accept-Language"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(conf.HTTP.AllowOrigins) == 1 && conf.HTTP.AllowOrigins[0] == "*" {
		corsConf.AllowAllOrigins = true
	} else {
		corsConf.AllowOrigins = conf.HTTP.AllowOrigins
	}
	return cors.New(corsConf)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	placesState := "disabled"
	if s.deps.Places != nil {
		state := s.deps.Places.State()
		s.deps.Metrics.SetPlacesLoaderState(int(state))
		placesState = state.String()
	}
	if err := s.deps.Properties.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  err.Error(),
			"places": placesState,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "places": placesState})
}
