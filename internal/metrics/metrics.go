package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values for fetch and tick counters.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics holds the Prometheus collectors for the pricefeed service.
type Metrics struct {
	registry *prometheus.Registry

	// FetchesTotal counts individual source fetch attempts.
	FetchesTotal *prometheus.CounterVec

	// TicksTotal counts poll cycles by outcome.
	TicksTotal *prometheus.CounterVec

	// FetchDuration observes the latency of successful source fetches.
	FetchDuration prometheus.Histogram

	// WindowSize tracks the number of points currently in the rolling window.
	WindowSize prometheus.Gauge

	// LastPrice tracks the most recently fetched price.
	LastPrice prometheus.Gauge
}

// New creates a Metrics instance backed by its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		FetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pricefeed_fetches_total",
			Help: "Source fetch attempts by source and result.",
		}, []string{"source", "result"}),
		TicksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pricefeed_ticks_total",
			Help: "Poll cycles by result.",
		}, []string{"result"}),
		FetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pricefeed_fetch_duration_seconds",
			Help:    "Latency of successful source fetches.",
			Buckets: prometheus.DefBuckets,
		}),
		WindowSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pricefeed_window_points",
			Help: "Points currently in the rolling window.",
		}),
		LastPrice: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pricefeed_last_price",
			Help: "Most recently fetched price.",
		}),
	}
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
