// Package scheduler runs recurring sync jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/matchup-engine/internal/service"
)

// DaySyncer processes the finished games of one day
type DaySyncer interface {
	SyncDay(ctx context.Context, date time.Time) (service.SyncSummary, error)
}

// Scheduler manages scheduled sync jobs
type Scheduler struct {
	cron            *cron.Cron
	syncer          DaySyncer
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	jobTimeout      time.Duration
	gracefulTimeout time.Duration
	now             func() time.Time
}

// NewScheduler creates a new scheduler
func NewScheduler(syncer DaySyncer, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		syncer:          syncer,
		logger:          logger.WithField("component", "scheduler"),
		jobIDs:          make([]cron.EntryID, 0),
		jobTimeout:      30 * time.Minute,
		gracefulTimeout: 30 * time.Second,
		now:             time.Now,
	}
}

// ScheduleDailySync schedules a sync of the previous UTC day
func (s *Scheduler) ScheduleDailySync(cronExpression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, s.syncPreviousDay)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("cron", cronExpression).Info("Scheduled daily sync job")
	return nil
}

func (s *Scheduler) syncPreviousDay() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	day := s.now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -1)
	log := s.logger.WithField("date", day.Format(time.DateOnly))
	log.Info("Starting scheduled daily sync")

	summary, err := s.syncer.SyncDay(ctx, day)
	if err != nil {
		log.WithError(err).Error("Scheduled daily sync failed")
		return
	}
	log.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"skipped":   summary.Skipped(),
	}).Info("Scheduled daily sync completed")
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running job up to the graceful timeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	done := s.cron.Stop().Done()
	s.isRunning = false

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler stop timed out after %s", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() && (nextRun.IsZero() || entry.Next.Before(nextRun)) {
			nextRun = entry.Next
		}
	}
	return nextRun
}

// Entries returns information about scheduled entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		if entry := s.cron.Entry(jobID); entry.Valid() {
			entries = append(entries, entry)
		}
	}
	return entries
}
