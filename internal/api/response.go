// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wneessen/propertyloc/internal/geocode"
	"github.com/wneessen/propertyloc/internal/logger"
	"github.com/wneessen/propertyloc/internal/places"
	"github.com/wneessen/propertyloc/internal/property"
)

// ErrorResponse is the error body of all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "bad_request"})
}

func notFound(c *gin.Context, what string) {
	c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: what + " not found", Code: "not_found"})
}

// handleError maps domain errors to HTTP responses.
func (s *Server) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, property.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, geocode.ErrNoMatch):
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "no_match"})
	case errors.Is(err, places.ErrProviderLoad):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error(), Code: "provider_load_failure"})
	default:
		s.deps.Logger.Error("request failed", logger.Err(err), slog.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func unavailable(c *gin.Context, what string) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{Error: what + " is not configured", Code: "unavailable"})
}
