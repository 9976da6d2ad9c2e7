// Package repository provides persistence for competitors, head-to-head records and rolling windows.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourusername/matchup-engine/internal/config"
	"github.com/yourusername/matchup-engine/internal/database"
	"github.com/yourusername/matchup-engine/internal/models"
	"github.com/yourusername/matchup-engine/internal/rating"
)

// Prior is the state a newly registered or reset competitor starts from
type Prior struct {
	Rating         rating.Rating
	WindowCapacity int
}

// DefaultPrior returns the default rating and window size
func DefaultPrior() Prior {
	return Prior{Rating: rating.NewRating(), WindowCapacity: models.DefaultWindowCapacity}
}

// Repositories holds all repository implementations
type Repositories struct {
	Competitor CompetitorRepository
	Pairwise   PairwiseRepository
	Window     WindowRepository
	Games      GameLedger

	store Store
	prior Prior
}

// NewRepositories creates the PostgreSQL-backed repositories
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Competitor: NewPostgresCompetitorRepository(db),
		Pairwise:   NewPostgresPairwiseRepository(db),
		Window:     NewPostgresWindowRepository(db),
		Games:      NewPostgresGameLedger(db),
		store:      &postgresStore{db: db},
		prior:      DefaultPrior(),
	}, nil
}

// NewSQLiteRepositories creates the SQLite-backed repositories
func NewSQLiteRepositories(db *database.SQLiteDB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Competitor: NewSQLiteCompetitorRepository(db),
		Pairwise:   NewSQLitePairwiseRepository(db),
		Window:     NewSQLiteWindowRepository(db),
		Games:      NewSQLiteGameLedger(db),
		store:      &sqliteStore{db: db},
		prior:      DefaultPrior(),
	}, nil
}

// NewMemoryRepositories creates repositories held entirely in process memory
func NewMemoryRepositories() *Repositories {
	store := newMemoryStore()
	return &Repositories{
		Competitor: &MemoryCompetitorRepository{store: store},
		Pairwise:   &MemoryPairwiseRepository{store: store},
		Window:     &MemoryWindowRepository{store: store},
		Games:      &MemoryGameLedger{store: store},
		store:      store,
		prior:      DefaultPrior(),
	}
}

// Open creates the repositories for the configured storage driver
func Open(ctx context.Context, cfg *config.Config) (*Repositories, error) {
	var (
		repos *Repositories
		err   error
	)

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		repos = NewMemoryRepositories()
	case config.DriverSQLite:
		db, openErr := database.InitializeSQLite(cfg)
		if openErr != nil {
			return nil, openErr
		}
		repos, err = NewSQLiteRepositories(db)
	case config.DriverPostgres:
		db, openErr := database.Initialize(ctx, cfg)
		if openErr != nil {
			return nil, openErr
		}
		repos, err = NewRepositories(db)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, err
	}

	return repos.WithPrior(Prior{
		Rating: rating.Rating{
			Mean:        cfg.Rating.InitialMean,
			Uncertainty: cfg.Rating.InitialUncertainty,
		},
		WindowCapacity: cfg.Models.WindowSize,
	}), nil
}

// WithPrior sets the starting state used by Register and Reset
func (r *Repositories) WithPrior(prior Prior) *Repositories {
	if prior.WindowCapacity <= 0 {
		prior.WindowCapacity = models.DefaultWindowCapacity
	}
	if prior.Rating.Uncertainty <= 0 {
		prior.Rating = rating.NewRating()
	}
	r.prior = prior
	return r
}

// Prior returns the starting state used by Register and Reset
func (r *Repositories) Prior() Prior {
	return r.prior
}

// NewCompetitor builds a competitor at the configured prior
func (r *Repositories) NewCompetitor(id models.CompetitorID, name, abbrev string) *models.Competitor {
	c := models.NewCompetitor(id, name, abbrev)
	c.Rating = r.prior.Rating
	return c
}

// Register creates the competitor, its rolling window and both directed head-to-head
// records against every competitor already registered. Registering twice is a no-op.
func (r *Repositories) Register(ctx context.Context, competitor *models.Competitor) error {
	if competitor == nil || competitor.ID <= 0 {
		return fmt.Errorf("failed to register competitor: %w", models.ErrInvalidID)
	}

	if err := r.Competitor.Create(ctx, competitor); err != nil {
		if !errors.Is(err, models.ErrDuplicateKey) {
			return fmt.Errorf("failed to register competitor %s: %w", competitor.ID, err)
		}
		// a duplicate abbrev under a different id leaves nothing registered
		if _, getErr := r.Competitor.GetByID(ctx, competitor.ID); getErr != nil {
			return fmt.Errorf("failed to register competitor %s: %w", competitor.ID, err)
		}
	}

	window := models.NewRollingWindow(competitor.ID, r.prior.WindowCapacity)
	if err := ignoreDuplicate(r.Window.Create(ctx, window)); err != nil {
		return fmt.Errorf("failed to create window for %s: %w", competitor.ID, err)
	}

	others, err := r.Competitor.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list competitors: %w", err)
	}

	for _, other := range others {
		if other.ID == competitor.ID {
			continue
		}
		for _, rec := range []*models.PairwiseRecord{
			models.NewPairwiseRecord(competitor.ID, other.ID),
			models.NewPairwiseRecord(other.ID, competitor.ID),
		} {
			if err := ignoreDuplicate(r.Pairwise.Create(ctx, rec)); err != nil {
				return fmt.Errorf("failed to create pairwise record %s->%s: %w", rec.FromID, rec.ToID, err)
			}
		}
	}

	return nil
}

func ignoreDuplicate(err error) error {
	if errors.Is(err, models.ErrDuplicateKey) {
		return nil
	}
	return err
}

// Ping verifies the backing store is reachable
func (r *Repositories) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// Reset returns all competitors to the prior and clears head-to-head, window and ledger history
func (r *Repositories) Reset(ctx context.Context) error {
	if err := r.store.Reset(ctx, r.prior); err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}
	return nil
}

// Close releases the backing store
func (r *Repositories) Close() error {
	return r.store.Close()
}
