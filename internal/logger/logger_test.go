package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerLevels(t *testing.T) {
	log := NewLoggerForEnvironment("debug", "development")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	_, isText := log.Formatter.(*logrus.TextFormatter)
	assert.True(t, isText)

	log = NewLoggerForEnvironment("bogus", "production")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	_, isJSON := log.Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)
}

func TestEngineLoggerGameProcessed(t *testing.T) {
	log, buf := setupTestLogger()
	engineLogger := NewEngineLogger(log)

	engineLogger.LogGameProcessed(2022020001, "TOR", "MTL", "WIN",
		[3]float64{0.61, 0.5, 0.4}, [3]bool{true, false, false})

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "engine", logEntry["component"])
	assert.Equal(t, "TOR", logEntry["away"])
	assert.Equal(t, true, logEntry["skill_hit"])
	assert.Equal(t, 0.61, logEntry["skill_favored"])
}

func TestEngineLoggerModelError(t *testing.T) {
	log, buf := setupTestLogger()
	NewEngineLogger(log).LogModelError("historical", 7, errors.New("boom"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "error", logEntry["level"])
	assert.Equal(t, "historical", logEntry["model"])
	assert.Equal(t, "boom", logEntry["error"])
}

func TestEngineLoggerRunSummary(t *testing.T) {
	log, buf := setupTestLogger()
	NewEngineLogger(log).LogRunSummary("run-1", 1312, map[string]float64{"skill": 0.58}, 2*time.Second)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, float64(1312), logEntry["games"])
	assert.Equal(t, float64(2000), logEntry["duration_ms"])
}

func TestSyncLogger(t *testing.T) {
	log, buf := setupTestLogger()
	syncLogger := NewSyncLogger(log)

	syncLogger.LogSyncCompleted("scoreboard", 3, 20, 1, 0, time.Second)
	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "sync", logEntry["component"])
	assert.Equal(t, float64(20), logEntry["games"])

	buf.Reset()
	syncLogger.LogCompetitorRegistered(10, "TOR", "Toronto Maple Leafs")
	logEntry = parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "TOR", logEntry["abbrev"])
}

func TestNilBaseLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		NewEngineLogger(nil).Debug("ok")
		NewSyncLogger(nil).Debug("ok")
	})
}
