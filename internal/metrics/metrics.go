// Package metrics provides the centralized Prometheus metrics registry for the prediction engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "matchup_engine"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	GamesProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "games_processed_total",
		Help:      "Total number of games processed by the orchestrator",
	})
	PredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictions_total",
		Help:      "Total number of model predictions by result",
	}, []string{"model", "result"})
	ModelErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "model_errors_total",
		Help:      "Total number of games aborted by a model failure",
	}, []string{"model"})
	CircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of circuit breaker trips",
	})
)

// Gauge metrics
var (
	ModelAccuracy = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "model_accuracy",
		Help:      "Running accuracy of each model in the current session",
	}, []string{"model"})
	RegisteredCompetitors = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "registered_competitors",
		Help:      "Number of registered competitors",
	})
	CompetitorMMR = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "competitor_mmr",
		Help:      "Display rating of each competitor",
	}, []string{"abbrev"})
	FeedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "feed_clients",
		Help:      "Number of connected live feed clients",
	})
)

// Histogram metrics
var (
	GameProcessingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "game_processing_duration_seconds",
		Help:      "Duration of one game's three model updates in seconds",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})
	FavoredExpectation = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "favored_expectation",
		Help:      "Expectation of the favored side per model",
		Buckets:   []float64{0.5, 0.55, 0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1.0},
	}, []string{"model"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register engine metrics
		registry.MustRegister(GamesProcessedTotal)
		registry.MustRegister(PredictionsTotal)
		registry.MustRegister(ModelErrorsTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)
		registry.MustRegister(ModelAccuracy)
		registry.MustRegister(RegisteredCompetitors)
		registry.MustRegister(CompetitorMMR)
		registry.MustRegister(FeedClients)
		registry.MustRegister(GameProcessingDuration)
		registry.MustRegister(FavoredExpectation)

		// Register sync metrics
		registry.MustRegister(SyncRunsTotal)
		registry.MustRegister(SourceRequestsTotal)
		registry.MustRegister(SyncDuration)
		registry.MustRegister(GamesSkippedTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordPrediction records one model's prediction result.
func RecordPrediction(model string, hit bool, favored float64) {
	result := "miss"
	if hit {
		result = "hit"
	}
	PredictionsTotal.WithLabelValues(model, result).Inc()
	FavoredExpectation.WithLabelValues(model).Observe(favored)
}

// RecordGameProcessed records a processed game and its duration.
func RecordGameProcessed(durationSeconds float64) {
	GamesProcessedTotal.Inc()
	GameProcessingDuration.Observe(durationSeconds)
}

// RecordModelError records a game aborted by a model.
func RecordModelError(model string) {
	ModelErrorsTotal.WithLabelValues(model).Inc()
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip() {
	CircuitBreakerTripsTotal.Inc()
}

// UpdateModelAccuracy updates a model's running accuracy gauge.
func UpdateModelAccuracy(model string, ratio float64) {
	ModelAccuracy.WithLabelValues(model).Set(ratio)
}

// UpdateCompetitorMMR updates a competitor's display rating gauge.
func UpdateCompetitorMMR(abbrev string, mmr int) {
	CompetitorMMR.WithLabelValues(abbrev).Set(float64(mmr))
}

// UpdateRegisteredCompetitors updates the competitor count gauge.
func UpdateRegisteredCompetitors(count int) {
	RegisteredCompetitors.Set(float64(count))
}

// UpdateFeedClients updates the connected feed clients gauge.
func UpdateFeedClients(count int) {
	FeedClients.Set(float64(count))
}
