package engine

import "github.com/yourusername/matchup-engine/internal/metrics"

// MetricsObserver publishes per-game results to Prometheus
type MetricsObserver struct{}

// OnGameProcessed implements GameObserver
func (MetricsObserver) OnGameProcessed(result GameResult) {
	metrics.RecordGameProcessed(result.Duration.Seconds())
	for i, acc := range result.Accuracy {
		metrics.RecordPrediction(acc.Model, result.Hits[i], result.Predictions[i].Favored())
		metrics.UpdateModelAccuracy(acc.Model, acc.Ratio)
	}
}
