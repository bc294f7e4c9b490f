// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type stateResponse struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (s *Server) handleSearch(c *gin.Context) {
	matches := s.deps.Directory.Search(c.Query("q"))
	c.JSON(http.StatusOK, gin.H{"results": matches})
}

func (s *Server) handleStates(c *gin.Context) {
	states := make([]stateResponse, 0, len(s.deps.Directory.States))
	for _, state := range s.deps.Directory.States {
		states = append(states, stateResponse{Name: state.Name, Code: state.Code})
	}
	c.JSON(http.StatusOK, gin.H{"states": states})
}

func (s *Server) handleLGAs(c *gin.Context) {
	state, ok := s.deps.Directory.State(c.Param("state"))
	if !ok {
		notFound(c, "state")
		return
	}
	lgas, _ := s.deps.Directory.LGAs(state.Name)
	c.JSON(http.StatusOK, gin.H{"state": state.Name, "lgas": lgas})
}

func (s *Server) handleCities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cities": s.deps.Directory.Cities()})
}

func (s *Server) handleAreas(c *gin.Context) {
	s.list(c, "city", "areas", s.deps.Directory.Areas)
}

func (s *Server) handleLandmarks(c *gin.Context) {
	s.list(c, "area", "landmarks", s.deps.Directory.Landmarks)
}

func (s *Server) list(c *gin.Context, param, field string, lookup func(string) ([]string, bool)) {
	name := c.Param(param)
	entries, ok := lookup(name)
	if !ok {
		notFound(c, param)
		return
	}
	c.JSON(http.StatusOK, gin.H{param: name, field: entries})
}
