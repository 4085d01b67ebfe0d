package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videotube_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "videotube_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// PipelineLatency records read pipeline latency by pipeline name.
	PipelineLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "videotube_relview_pipeline_latency_seconds",
		Help:    "Join, rank, page and annotate latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"pipeline"})

	// ToggleTotal counts toggles by relationship and resulting state.
	ToggleTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videotube_toggle_total",
		Help: "Total number of like and subscription toggles by resulting state",
	}, []string{"relationship", "state"})

	// CascadeRetries counts retried cascading deletes by parent entity.
	CascadeRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videotube_cascade_retries_total",
		Help: "Total number of cascading delete retries",
	}, []string{"entity"})

	// MediaDeletions counts blob deletions by outcome (deleted, deferred, failed).
	MediaDeletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videotube_media_deletions_total",
		Help: "Total number of media deletions by outcome",
	}, []string{"outcome"})

	// BackgroundFailures counts failed fire-and-forget writes by operation.
	BackgroundFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videotube_background_failures_total",
		Help: "Total number of failed fire-and-forget writes",
	}, []string{"operation"})
)

// ObservePipeline records the latency of a pipeline run started at start.
func ObservePipeline(name string, start time.Time) {
	PipelineLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// ToggleState is the label value for a toggle outcome.
func ToggleState(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}
