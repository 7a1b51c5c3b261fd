// Package observability provides Prometheus metrics and OpenTelemetry tracing helpers.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photoshare_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "photoshare_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// MediaUploads counts photo uploads by provider and outcome.
	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photoshare_media_uploads_total",
		Help: "Total number of photo uploads by provider and outcome",
	}, []string{"provider", "outcome"})

	// MediaTransforms counts photo effect transforms by effect name.
	MediaTransforms = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photoshare_media_transforms_total",
		Help: "Total number of photo transforms by effect",
	}, []string{"effect"})

	// RatingsRecorded counts accepted post ratings.
	RatingsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "photoshare_ratings_recorded_total",
		Help: "Total number of accepted post ratings",
	})

	// SearchRequests counts post searches by whether any filter criteria were supplied.
	SearchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photoshare_search_requests_total",
		Help: "Total number of post search requests",
	}, []string{"filtered"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
