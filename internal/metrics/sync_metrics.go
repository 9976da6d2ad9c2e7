package metrics

import "github.com/prometheus/client_golang/prometheus"

// Sync counter vectors
var (
	SyncRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_runs_total",
		Help:      "Total number of sync runs by kind and status",
	}, []string{"kind", "status"})

	SourceRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_requests_total",
		Help:      "Total number of game source requests by source and status",
	}, []string{"source", "status"})

	GamesSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "games_skipped_total",
		Help:      "Total number of fetched games not processed, by reason",
	}, []string{"reason"})
)

// Sync histogram vectors
var (
	SyncDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sync_duration_seconds",
		Help:      "Duration of sync runs in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600, 1800},
	}, []string{"kind"})
)

// RecordSyncRun records a sync run.
// kind should be one of: "replay", "daily", "bootstrap"
// status should be one of: "success", "failure"
func RecordSyncRun(kind, status string, durationSeconds float64) {
	SyncRunsTotal.WithLabelValues(kind, status).Inc()
	SyncDuration.WithLabelValues(kind).Observe(durationSeconds)
}

// RecordSourceRequest records one request to a game source.
func RecordSourceRequest(source, status string) {
	SourceRequestsTotal.WithLabelValues(source, status).Inc()
}

// RecordGameSkipped records a fetched game that was not processed.
func RecordGameSkipped(reason string) {
	GamesSkippedTotal.WithLabelValues(reason).Inc()
}
