package service

import (
	"sync"
	"time"
)

// SyncSummary is a snapshot of one sync run
type SyncSummary struct {
	Kind             string        `json:"kind"`
	StartTime        time.Time     `json:"start_time"`
	Duration         time.Duration `json:"duration"`
	Days             int           `json:"days"`
	Games            int           `json:"games"`
	Processed        int           `json:"processed"`
	Duplicates       int           `json:"duplicates"`
	Registered       int           `json:"registered"`
	ValidationErrors int           `json:"validation_errors"`
	Errors           int           `json:"errors"`
}

// Skipped returns the games fetched but not processed
func (s SyncSummary) Skipped() int {
	return s.Duplicates + s.ValidationErrors
}

// SyncMetrics tracks statistics about a sync run
type SyncMetrics struct {
	mu      sync.RWMutex
	summary SyncSummary
}

// NewSyncMetrics creates a new metrics tracker
func NewSyncMetrics(kind string) *SyncMetrics {
	return &SyncMetrics{summary: SyncSummary{Kind: kind, StartTime: time.Now()}}
}

// RecordDay increments the fetched day count
func (m *SyncMetrics) RecordDay(games int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary.Days++
	m.summary.Games += games
}

// RecordProcessed adds processed games
func (m *SyncMetrics) RecordProcessed(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary.Processed += n
}

// RecordDuplicate increments duplicate count
func (m *SyncMetrics) RecordDuplicate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary.Duplicates++
}

// RecordRegistered increments newly registered competitor count
func (m *SyncMetrics) RecordRegistered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary.Registered++
}

// RecordValidationError increments validation error count
func (m *SyncMetrics) RecordValidationError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary.ValidationErrors++
}

// RecordError increments error count
func (m *SyncMetrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary.Errors++
}

// Finish stamps the run duration and returns the final snapshot
func (m *SyncMetrics) Finish() SyncSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary.Duration = time.Since(m.summary.StartTime)
	return m.summary
}

// Snapshot returns the current counters
func (m *SyncMetrics) Snapshot() SyncSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.summary
}
