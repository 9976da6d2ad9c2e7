package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// EngineLogger provides dedicated logging for the prediction engine.
type EngineLogger struct {
	*logrus.Entry
}

// NewEngineLogger creates a new engine logger.
func NewEngineLogger(baseLogger *logrus.Logger) *EngineLogger {
	return &EngineLogger{
		Entry: orDefault(baseLogger).WithField("component", "engine"),
	}
}

// LogGameProcessed logs the three model predictions for one game.
func (el *EngineLogger) LogGameProcessed(gameID int64, away, home string, actual string, favored [3]float64, hits [3]bool) {
	el.WithFields(logrus.Fields{
		"game_id":         gameID,
		"away":            away,
		"home":            home,
		"actual":          actual,
		"skill_favored":   favored[0],
		"history_favored": favored[1],
		"last_n_favored":  favored[2],
		"skill_hit":       hits[0],
		"history_hit":     hits[1],
		"last_n_hit":      hits[2],
	}).Debug("Game processed")
}

// LogRatingChange logs a competitor's display rating movement.
func (el *EngineLogger) LogRatingChange(abbrev string, oldMMR, newMMR int, mean, uncertainty float64) {
	el.WithFields(logrus.Fields{
		"competitor":  abbrev,
		"old_mmr":     oldMMR,
		"new_mmr":     newMMR,
		"mean":        mean,
		"uncertainty": uncertainty,
	}).Debug("Rating updated")
}

// LogModelError logs a model failure that aborted a game.
func (el *EngineLogger) LogModelError(model string, gameID int64, err error) {
	el.WithFields(logrus.Fields{
		"model":   model,
		"game_id": gameID,
	}).WithError(err).Error("Model update failed")
}

// LogRunSummary logs per-model accuracy at the end of a run.
func (el *EngineLogger) LogRunSummary(runID string, games int, accuracy map[string]float64, duration time.Duration) {
	el.WithFields(logrus.Fields{
		"run_id":      runID,
		"games":       games,
		"accuracy":    accuracy,
		"duration_ms": duration.Milliseconds(),
	}).Info("Run completed")
}
