// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wneessen/propertyloc/internal/disclosure"
	"github.com/wneessen/propertyloc/internal/geo"
	"github.com/wneessen/propertyloc/internal/property"
)

type disclosureRequest struct {
	Tier          string   `json:"tier" binding:"required"`
	Latitude      *float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude     *float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
	StreetAddress string   `json:"street_address"`
	Area          string   `json:"area"`
	State         string   `json:"state"`
}

type locationRequest struct {
	disclosureRequest
	LGA            string     `json:"lga"`
	PlaceID        string     `json:"place_id"`
	AccuracyMeters float64    `json:"accuracy_meters" binding:"gte=0"`
	CapturedAt     *time.Time `json:"captured_at"`
}

type propertyLocationResponse struct {
	PropertyID uuid.UUID       `json:"property_id"`
	Tier       disclosure.Tier `json:"tier"`
	View       disclosure.View `json:"view"`
}

func (r disclosureRequest) property() (disclosure.Property, error) {
	tier, err := disclosure.ParseTier(r.Tier)
	if err != nil {
		return disclosure.Property{}, err
	}
	return disclosure.Property{
		Tier:          tier,
		Coordinate:    geo.Coordinate{Latitude: *r.Latitude, Longitude: *r.Longitude},
		StreetAddress: r.StreetAddress,
		Area:          r.Area,
		State:         r.State,
	}, nil
}

func (s *Server) handleDisclosurePreview(c *gin.Context) {
	var req disclosureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	prop, err := req.property()
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, disclosure.Render(prop))
}

func (s *Server) handlePropertyLocation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, fmt.Errorf("invalid property id: %w", err))
		return
	}
	loc, err := s.deps.Properties.Location(c.Request.Context(), id)
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, propertyLocationResponse{
		PropertyID: loc.PropertyID,
		Tier:       loc.Tier,
		View:       disclosure.Render(loc.Disclosure()),
	})
}

func (s *Server) handleSavePropertyLocation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, fmt.Errorf("invalid property id: %w", err))
		return
	}
	var req locationRequest
	if err = c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	prop, err := req.property()
	if err != nil {
		badRequest(c, err)
		return
	}

	loc := property.Location{
		PropertyID:    id,
		Tier:          prop.Tier,
		StreetAddress: prop.StreetAddress,
		Area:          prop.Area,
		LGA:           req.LGA,
		State:         prop.State,
		PlaceID:       req.PlaceID,
		Coordinate:    prop.Coordinate,
	}
	loc.Coordinate.AccuracyMeters = req.AccuracyMeters
	if req.CapturedAt != nil {
		loc.Coordinate.CapturedAt = req.CapturedAt.UTC()
	}
	if err = loc.Validate(); err != nil {
		badRequest(c, err)
		return
	}

	saved, err := s.deps.Properties.SaveLocation(c.Request.Context(), loc)
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}
