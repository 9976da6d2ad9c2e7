package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// SyncLogger provides dedicated logging for game source synchronization.
type SyncLogger struct {
	*logrus.Entry
}

// NewSyncLogger creates a new sync logger.
func NewSyncLogger(baseLogger *logrus.Logger) *SyncLogger {
	return &SyncLogger{
		Entry: orDefault(baseLogger).WithField("component", "sync"),
	}
}

// LogCompetitorRegistered logs a first-sight competitor registration.
func (sl *SyncLogger) LogCompetitorRegistered(id int64, abbrev, name string) {
	sl.WithFields(logrus.Fields{
		"competitor_id": id,
		"abbrev":        abbrev,
		"name":          name,
	}).Info("Competitor registered")
}

// LogDayFetched logs the games fetched for one date.
func (sl *SyncLogger) LogDayFetched(source string, date time.Time, games, skipped int) {
	sl.WithFields(logrus.Fields{
		"source":  source,
		"date":    date.Format("2006-01-02"),
		"games":   games,
		"skipped": skipped,
	}).Debug("Day fetched")
}

// LogSyncCompleted logs the outcome of a sync run.
func (sl *SyncLogger) LogSyncCompleted(source string, days, games, skipped, errors int, duration time.Duration) {
	sl.WithFields(logrus.Fields{
		"source":      source,
		"days":        days,
		"games":       games,
		"skipped":     skipped,
		"errors":      errors,
		"duration_ms": duration.Milliseconds(),
	}).Info("Sync completed")
}

// LogSyncFailed logs a sync run that stopped on an error.
func (sl *SyncLogger) LogSyncFailed(source string, date time.Time, err error) {
	sl.WithFields(logrus.Fields{
		"source": source,
		"date":   date.Format("2006-01-02"),
	}).WithError(err).Error("Sync failed")
}
