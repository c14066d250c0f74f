package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipenest_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipenest_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Aggregation layer
	AggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipenest_aggregation_duration_seconds",
			Help:    "Duration of dashboard and profile aggregations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)

	AggregationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipenest_aggregation_errors_total",
			Help: "Total number of failed aggregations",
		},
		[]string{"operation"},
	)

	// Activity stream
	ActivityEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipenest_activity_events_published_total",
			Help: "Activity events published to the broker by type",
		},
		[]string{"type"},
	)

	ActivityStreamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recipenest_activity_stream_clients",
			Help: "Currently connected activity stream websocket clients",
		},
	)
)

// ObserveAggregation records the outcome of one aggregation. Use with defer:
//
//	defer func() { metrics.ObserveAggregation("chef_stats", start, err) }()
func ObserveAggregation(operation string, start time.Time, err error) {
	AggregationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		AggregationErrors.WithLabelValues(operation).Inc()
	}
}
