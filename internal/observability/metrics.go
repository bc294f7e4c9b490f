// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package observability holds the Prometheus metrics of the service.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "propertyloc"

// Metrics holds the Prometheus counters, histograms and gauges of the service.
type Metrics struct {
	HTTPRequests *prometheus.CounterVec   // labels: method, route, status
	HTTPDuration *prometheus.HistogramVec // labels: route

	Acquisitions  *prometheus.CounterVec // labels: device, outcome
	GeocodeCache  *prometheus.CounterVec // labels: provider, result={hit,miss}
	PlaceRequests *prometheus.CounterVec // labels: operation={suggest,select}, outcome
	PlacesLoader  prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics creates the metrics and registers them, together with the Go and process
// collectors, with a new registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return newMetrics(reg, reg)
}

// NewMetricsForTesting creates metrics on a fresh registry without the runtime collectors.
func NewMetricsForTesting() *Metrics {
	reg := prometheus.NewRegistry()
	return newMetrics(reg, reg)
}

func newMetrics(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"route"}),
		Acquisitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geolocation_acquisitions_total",
			Help:      "Geolocation acquisitions by device class and outcome.",
		}, []string{"device", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Reverse geocoding cache lookups by provider and result.",
		}, []string{"provider", "result"}),
		PlaceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "places_requests_total",
			Help:      "Places autocomplete requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		PlacesLoader: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "places_loader_state",
			Help:      "Places provider state: 0 uninitialized, 1 loading, 2 ready, 3 failed.",
		}),
		gatherer: gatherer,
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.Acquisitions,
		m.GeocodeCache,
		m.PlaceRequests,
		m.PlacesLoader,
	)

	return m
}

// Handler returns the HTTP handler exposing the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveRequest records a finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// GeocodeCacheResult records a reverse geocoding cache lookup.
func (m *Metrics) GeocodeCacheResult(provider string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.GeocodeCache.WithLabelValues(provider, result).Inc()
}

// AcquisitionResult records a finished acquisition. Outcome is "success" or the error kind.
func (m *Metrics) AcquisitionResult(device, outcome string) {
	m.Acquisitions.WithLabelValues(device, outcome).Inc()
}

// PlaceRequest records a places request.
func (m *Metrics) PlaceRequest(operation, outcome string) {
	m.PlaceRequests.WithLabelValues(operation, outcome).Inc()
}

// SetPlacesLoaderState records the numeric loader state.
func (m *Metrics) SetPlacesLoaderState(state int) {
	m.PlacesLoader.Set(float64(state))
}
