// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wneessen/propertyloc/internal/geo"
	"github.com/wneessen/propertyloc/internal/places"
	"github.com/wneessen/propertyloc/internal/widget"
)

type acquireRequest struct {
	// Device overrides the device class sniffed from the User-Agent.
	Device         string `json:"device" binding:"omitempty,oneof=mobile desktop"`
	MaxTouchPoints int    `json:"max_touch_points" binding:"gte=0"`
	ReverseGeocode bool   `json:"reverse_geocode"`
	ShowMap        bool   `json:"show_map"`
}

type pickRequest struct {
	Latitude       *float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude      *float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
	ReverseGeocode bool     `json:"reverse_geocode"`
	ShowMap        bool     `json:"show_map"`
}

type reverseQuery struct {
	Latitude  *float64 `form:"lat" binding:"required,gte=-90,lte=90"`
	Longitude *float64 `form:"lon" binding:"required,gte=-180,lte=180"`
}

type captureResponse struct {
	Device  geo.DeviceClass      `json:"device"`
	Widget  widget.View          `json:"widget"`
	Address *geo.ResolvedAddress `json:"address,omitempty"`
}

// capture collects the address reported by a widget's change notification.
type capture struct {
	addr *geo.ResolvedAddress
}

func (c *capture) onChange(addr geo.ResolvedAddress) {
	c.addr = &addr
}

type widgetRequest struct {
	device         geo.DeviceClass
	showMap        bool
	reverseGeocode bool
	session        places.SessionToken
}

func (s *Server) newWidget(req widgetRequest, onChange widget.ChangeFunc) (*widget.Widget, error) {
	opts := widget.Options{
		Device:     req.device,
		ShowMap:    req.showMap,
		Zoom:       s.deps.Config.Map.Zoom,
		Session:    req.session,
		Locator:    s.deps.Locator,
		Translator: s.deps.Translator,
		Logger:     s.deps.Logger,
		OnChange:   onChange,
	}
	if req.reverseGeocode {
		opts.Geocoder = s.deps.Geocoder
	}
	if s.deps.Places != nil {
		opts.Places = s.deps.Places
	}
	return widget.New(opts)
}

func (s *Server) handleAcquire(c *gin.Context) {
	var req acquireRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	device := geo.DetectDeviceClass(c.Request.UserAgent(), req.MaxTouchPoints)
	if override, ok := geo.ParseDeviceClass(req.Device); ok {
		device = override
	}

	result := new(capture)
	w, err := s.newWidget(widgetRequest{
		device:         device,
		showMap:        req.ShowMap,
		reverseGeocode: req.ReverseGeocode,
	}, result.onChange)
	if err != nil {
		s.handleError(c, err)
		return
	}
	w.UseMyLocation(c.Request.Context())
	w.Wait()

	view := w.View()
	outcome := "success"
	if result.addr == nil && len(view.Advisories) > 0 {
		outcome = view.Advisories[0].Code
	}
	s.deps.Metrics.AcquisitionResult(device.String(), outcome)

	c.JSON(http.StatusOK, captureResponse{Device: device, Widget: view, Address: result.addr})
}

func (s *Server) handlePick(c *gin.Context) {
	var req pickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	device := geo.DetectDeviceClass(c.Request.UserAgent(), 0)
	result := new(capture)
	w, err := s.newWidget(widgetRequest{
		device:         device,
		showMap:        req.ShowMap,
		reverseGeocode: req.ReverseGeocode,
	}, result.onChange)
	if err != nil {
		s.handleError(c, err)
		return
	}
	coord := geo.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if err = w.PickOnMap(c.Request.Context(), coord); err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, captureResponse{Device: device, Widget: w.View(), Address: result.addr})
}

func (s *Server) handleReverse(c *gin.Context) {
	var query reverseQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}
	if s.deps.Geocoder == nil {
		unavailable(c, "reverse geocoding")
		return
	}

	coord := geo.Coordinate{Latitude: *query.Latitude, Longitude: *query.Longitude}
	addr, err := s.deps.Geocoder.Reverse(c.Request.Context(), coord)
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"address":      addr,
		"display_text": addr.Resolve(coord).DisplayText,
		"cache_hit":    addr.CacheHit,
	})
}

type autocompleteQuery struct {
	Input   string `form:"input" binding:"max=200"`
	Session string `form:"session"`
}

type autocompleteResponse struct {
	widget.Suggestions
	Session    string            `json:"session"`
	Advisories []widget.Advisory `json:"advisories,omitempty"`
}

func (s *Server) handleAutocomplete(c *gin.Context) {
	var query autocompleteQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}
	session, err := sessionToken(query.Session)
	if err != nil {
		badRequest(c, err)
		return
	}
	if s.deps.Places == nil {
		unavailable(c, "places autocomplete")
		return
	}

	w, err := s.newWidget(widgetRequest{session: session}, nil)
	if err != nil {
		s.handleError(c, err)
		return
	}
	suggestions, err := w.Suggest(c.Request.Context(), query.Input)
	if err != nil {
		s.deps.Metrics.PlaceRequest("suggest", "error")
		s.handleError(c, err)
		return
	}
	view := w.View()
	s.deps.Metrics.PlaceRequest("suggest", placesOutcome(suggestions.Loading, view.Advisories))

	c.JSON(http.StatusOK, autocompleteResponse{
		Suggestions: suggestions,
		Session:     session.String(),
		Advisories:  view.Advisories,
	})
}

func (s *Server) handlePlace(c *gin.Context) {
	session, err := sessionToken(c.Query("session"))
	if err != nil {
		badRequest(c, err)
		return
	}
	if s.deps.Places == nil {
		unavailable(c, "places autocomplete")
		return
	}

	result := new(capture)
	w, err := s.newWidget(widgetRequest{session: session, showMap: true}, result.onChange)
	if err != nil {
		s.handleError(c, err)
		return
	}
	ok, err := w.SelectPlace(c.Request.Context(), c.Param("placeId"))
	if err != nil {
		s.deps.Metrics.PlaceRequest("select", "error")
		s.handleError(c, err)
		return
	}

	view := w.View()
	s.deps.Metrics.PlaceRequest("select", placesOutcome(view.Loading, view.Advisories))
	switch {
	case ok:
		c.JSON(http.StatusOK, gin.H{"address": result.addr, "widget": view, "session": w.Session().String()})
	case view.Loading:
		c.JSON(http.StatusAccepted, gin.H{"loading": true, "widget": view})
	case len(view.Advisories) > 0:
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: view.Advisories[0].Message,
			Code:  view.Advisories[0].Code,
		})
	default:
		notFound(c, "place address")
	}
}

func placesOutcome(loading bool, advisories []widget.Advisory) string {
	switch {
	case loading:
		return "not_ready"
	case len(advisories) > 0:
		return "unavailable"
	default:
		return "ok"
	}
}

func sessionToken(val string) (places.SessionToken, error) {
	if strings.TrimSpace(val) == "" {
		return places.NewSessionToken(), nil
	}
	return places.ParseSessionToken(val)
}
