package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestTotal counts HTTP requests by method, route and status.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardbook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	// RequestDuration is the latency of HTTP requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cardbook_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	// ViewDerivations counts table view recomputations (cache misses).
	ViewDerivations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardbook_view_derivations_total",
			Help: "Number of times the contact table view was recomputed",
		},
	)
	// LoadState is 1 for the current load state of the contact table.
	LoadState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cardbook_load_state",
			Help: "Current contact load state (pending, loaded, failed)",
		},
		[]string{"state"},
	)
	// LoadedRows is the number of contacts in the current store.
	LoadedRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardbook_loaded_rows",
			Help: "Number of contacts currently loaded",
		},
	)
	// GeocodeTotal counts smart geocode outcomes by source (api, fallback, api_city, none).
	GeocodeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardbook_geocode_total",
			Help: "Smart geocode results by source",
		},
		[]string{"source"},
	)
	// GeocodeUpstream counts calls to the external geocoding API by outcome.
	GeocodeUpstream = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardbook_geocode_upstream_requests_total",
			Help: "Requests sent to the geocoding provider",
		},
		[]string{"outcome"},
	)
)

// SetLoadState flips the load state gauge to state.
func SetLoadState(state string) {
	for _, s := range []string{"pending", "loaded", "failed"} {
		v := 0.0
		if s == state {
			v = 1
		}
		LoadState.WithLabelValues(s).Set(v)
	}
}
