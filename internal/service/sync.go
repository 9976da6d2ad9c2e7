// Package service wires game sources, storage and the orchestrator into sync workflows.
package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/matchup-engine/internal/datasource"
	"github.com/yourusername/matchup-engine/internal/engine"
	"github.com/yourusername/matchup-engine/internal/logger"
	"github.com/yourusername/matchup-engine/internal/metrics"
	"github.com/yourusername/matchup-engine/internal/models"
	"github.com/yourusername/matchup-engine/internal/repository"
)

// Sync kinds
const (
	KindReplay    = "replay"
	KindDaily     = "daily"
	KindBootstrap = "bootstrap"
)

// ErrSyncInProgress is returned when a second sync starts while one is running
var ErrSyncInProgress = errors.New("sync already in progress")

// SeasonWindow bounds the months a replay walks
type SeasonWindow struct {
	StartMonth int
	EndMonth   int
}

// SyncService fetches finished games, registers competitors on first sight and
// feeds games to the orchestrator in chronological order
type SyncService struct {
	source       datasource.GameSource
	repos        *repository.Repositories
	orchestrator *engine.Orchestrator
	validator    *GameValidator
	season       SeasonWindow
	logger       *logger.SyncLogger

	running sync.Mutex
	mu      sync.RWMutex
	last    *SyncSummary
}

// NewSyncService creates a new sync service
func NewSyncService(
	source datasource.GameSource,
	repos *repository.Repositories,
	orchestrator *engine.Orchestrator,
	season SeasonWindow,
	log *logrus.Logger,
) (*SyncService, error) {
	if source == nil {
		return nil, fmt.Errorf("game source is required")
	}
	if repos == nil || orchestrator == nil {
		return nil, fmt.Errorf("repositories and orchestrator are required")
	}
	if season.StartMonth == 0 || season.EndMonth == 0 {
		season = SeasonWindow{StartMonth: 1, EndMonth: 12}
	}

	return &SyncService{
		source:       source,
		repos:        repos,
		orchestrator: orchestrator,
		validator:    NewGameValidator(log),
		season:       season,
		logger:       logger.NewSyncLogger(log),
	}, nil
}

// Bootstrap registers every competitor the source knows
func (s *SyncService) Bootstrap(ctx context.Context) (SyncSummary, error) {
	if !s.running.TryLock() {
		return SyncSummary{}, ErrSyncInProgress
	}
	defer s.running.Unlock()

	m := NewSyncMetrics(KindBootstrap)
	competitors, err := s.source.FetchCompetitors(ctx)
	if err != nil {
		m.RecordError()
		return s.finish(m, err)
	}

	for _, c := range competitors {
		registered, err := s.ensureRegistered(ctx, c)
		if err != nil {
			m.RecordError()
			s.logger.WithError(err).WithField("competitor", c.Abbrev).Warn("Failed to register competitor")
			continue
		}
		if registered {
			m.RecordRegistered()
		}
	}
	return s.finish(m, nil)
}

// Replay processes every in-season day from start to end inclusive
func (s *SyncService) Replay(ctx context.Context, start, end time.Time) (SyncSummary, error) {
	if end.Before(start) {
		return SyncSummary{}, fmt.Errorf("end date %s is before start date %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return s.run(ctx, KindReplay, datasource.SeasonDays(start, end, s.season.StartMonth, s.season.EndMonth))
}

// SyncDay processes the finished games of one day
func (s *SyncService) SyncDay(ctx context.Context, date time.Time) (SyncSummary, error) {
	return s.run(ctx, KindDaily, slices.Values([]time.Time{date}))
}

// LastSummary returns the summary of the most recent run, if any
func (s *SyncService) LastSummary() (SyncSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return SyncSummary{}, false
	}
	return *s.last, true
}

func (s *SyncService) run(ctx context.Context, kind string, days iter.Seq[time.Time]) (SyncSummary, error) {
	if !s.running.TryLock() {
		return SyncSummary{}, ErrSyncInProgress
	}
	defer s.running.Unlock()

	m := NewSyncMetrics(kind)
	for day := range days {
		if err := ctx.Err(); err != nil {
			return s.finish(m, err)
		}
		if err := s.syncDay(ctx, day, m); err != nil {
			m.RecordError()
			s.logger.LogSyncFailed(s.source.Name(), day, err)
			return s.finish(m, err)
		}
	}
	s.publishRatings(ctx)
	return s.finish(m, nil)
}

// syncDay fetches one day and hands the accepted games to the orchestrator
func (s *SyncService) syncDay(ctx context.Context, day time.Time, m *SyncMetrics) error {
	fetched, err := s.source.FetchGames(ctx, day)
	if err != nil {
		return fmt.Errorf("failed to fetch games for %s: %w", day.Format(time.DateOnly), err)
	}
	m.RecordDay(len(fetched))

	accepted, skipped, err := s.prepare(ctx, fetched, m)
	if err != nil {
		return err
	}
	s.logger.LogDayFetched(s.source.Name(), day, len(accepted), skipped)

	n, procErr := s.orchestrator.ProcessGames(ctx, slices.Values(accepted))
	m.RecordProcessed(n)
	return procErr
}

// prepare drops invalid and already processed games and registers unseen competitors
func (s *SyncService) prepare(ctx context.Context, fetched []datasource.GameData, m *SyncMetrics) ([]models.Game, int, error) {
	accepted := make([]models.Game, 0, len(fetched))
	seen := make(map[int64]struct{}, len(fetched))
	skipped := 0

	for _, data := range fetched {
		if problems := s.validator.ValidateGame(data); len(problems) > 0 {
			m.RecordValidationError()
			metrics.RecordGameSkipped("invalid")
			skipped++
			continue
		}

		if _, dup := seen[data.Game.ID]; dup {
			m.RecordDuplicate()
			metrics.RecordGameSkipped("duplicate")
			skipped++
			continue
		}
		processed, err := s.repos.Games.IsProcessed(ctx, data.Game.ID)
		if err != nil {
			return nil, skipped, fmt.Errorf("failed to check game %d: %w", data.Game.ID, err)
		}
		if processed {
			m.RecordDuplicate()
			metrics.RecordGameSkipped("duplicate")
			skipped++
			continue
		}
		seen[data.Game.ID] = struct{}{}

		for _, c := range []datasource.CompetitorData{data.Away, data.Home} {
			registered, err := s.ensureRegistered(ctx, c)
			if err != nil {
				return nil, skipped, err
			}
			if registered {
				m.RecordRegistered()
			}
		}
		accepted = append(accepted, data.Game)
	}
	return accepted, skipped, nil
}

// ensureRegistered registers c unless it already exists and reports whether it was new
func (s *SyncService) ensureRegistered(ctx context.Context, c datasource.CompetitorData) (bool, error) {
	_, err := s.repos.Competitor.GetByID(ctx, c.ID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return false, fmt.Errorf("failed to look up competitor %s: %w", c.ID, err)
	}

	if err := s.repos.Register(ctx, s.repos.NewCompetitor(c.ID, c.Name, c.Abbrev)); err != nil {
		return false, err
	}
	s.logger.LogCompetitorRegistered(int64(c.ID), c.Abbrev, c.Name)
	return true, nil
}

// publishRatings refreshes the rating gauges
func (s *SyncService) publishRatings(ctx context.Context) {
	competitors, err := s.repos.Competitor.List(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to list competitors for metrics")
		return
	}
	metrics.UpdateRegisteredCompetitors(len(competitors))
	for _, c := range competitors {
		metrics.UpdateCompetitorMMR(c.Abbrev, c.MMR())
	}
}

func (s *SyncService) finish(m *SyncMetrics, err error) (SyncSummary, error) {
	summary := m.Finish()
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.RecordSyncRun(summary.Kind, status, summary.Duration.Seconds())
	s.logger.LogSyncCompleted(s.source.Name(), summary.Days, summary.Processed, summary.Skipped(), summary.Errors, summary.Duration)

	s.mu.Lock()
	s.last = &summary
	s.mu.Unlock()
	return summary, err
}
