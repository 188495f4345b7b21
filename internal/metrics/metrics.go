// Package metrics exposes the Prometheus collectors for the serving core.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splat_requests_total",
		Help: "Splat requests by final HTTP status.",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "splat_stage_duration_seconds",
		Help:    "Wall-clock time spent per pipeline stage.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	}, []string{"stage"})

	ModelLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splat_model_loads_total",
		Help: "Model load attempts by outcome.",
	}, []string{"outcome"})

	ArtifactBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "splat_artifact_bytes",
		Help:    "Size of published PLY artifacts.",
		Buckets: prometheus.ExponentialBuckets(1<<20, 2, 10),
	})
)

// ObserveStage records the duration of one pipeline stage.
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// Handler returns the Prometheus exposition endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
