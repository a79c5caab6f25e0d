// Package metrics exposes Prometheus metrics for the API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP metrics
var (
	// HTTPRequestsTotal tracks total HTTP requests by method, route and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// HTTPRequestsInFlight tracks requests currently being served
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)
)

// Hierarchy metrics
var (
	// TreeBuildsTotal tracks hierarchy builds by entity kind
	TreeBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tree_builds_total",
			Help: "Total number of hierarchy tree builds by entity kind",
		},
		[]string{"kind"},
	)

	// TreeNodes records the node count observed per hierarchy build
	TreeNodes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tree_nodes",
			Help:    "Node count per hierarchy tree build",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		},
		[]string{"kind"},
	)

	// CascadeDeletesTotal tracks subtree deletions by entity kind
	CascadeDeletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cascade_deletes_total",
			Help: "Total number of subtree cascade deletions by entity kind",
		},
		[]string{"kind"},
	)
)

// Permission metrics
var (
	// PermissionResolutionsTotal tracks effective-permission resolutions
	PermissionResolutionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "permission_resolutions_total",
			Help: "Total number of effective permission resolutions",
		},
	)

	// InheritedGrants records inherited grant counts per resolution
	InheritedGrants = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inherited_grants",
			Help:    "Inherited grant count per permission resolution",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
