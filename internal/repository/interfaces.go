package repository

import (
	"context"

	"github.com/yourusername/matchup-engine/internal/models"
)

// CompetitorRepository defines the interface for competitor data access
type CompetitorRepository interface {
	Create(ctx context.Context, competitor *models.Competitor) error
	GetByID(ctx context.Context, id models.CompetitorID) (*models.Competitor, error)
	GetByAbbrev(ctx context.Context, abbrev string) (*models.Competitor, error)
	List(ctx context.Context) ([]*models.Competitor, error)
	// UpdateRatings writes every competitor's rating in one atomic step
	UpdateRatings(ctx context.Context, competitors ...*models.Competitor) error
}

// PairwiseRepository defines the interface for head-to-head record access
type PairwiseRepository interface {
	Create(ctx context.Context, record *models.PairwiseRecord) error
	Get(ctx context.Context, from, to models.CompetitorID) (*models.PairwiseRecord, error)
	// Update writes every record in one atomic step
	Update(ctx context.Context, records ...*models.PairwiseRecord) error
}

// WindowRepository defines the interface for rolling window access
type WindowRepository interface {
	Create(ctx context.Context, window *models.RollingWindow) error
	Get(ctx context.Context, id models.CompetitorID) (*models.RollingWindow, error)
	// Update writes every window in one atomic step
	Update(ctx context.Context, windows ...*models.RollingWindow) error
}

// GameLedger records which games have already been applied to the stored state
type GameLedger interface {
	IsProcessed(ctx context.Context, gameID int64) (bool, error)
	MarkProcessed(ctx context.Context, gameID int64) error
}

// Store is the backend lifecycle shared by all repositories of one driver
type Store interface {
	Ping(ctx context.Context) error
	// Reset returns every registered competitor to the given prior and clears all history
	Reset(ctx context.Context, prior Prior) error
	// Apply writes every record in the batch and its ledger entry, or nothing
	Apply(ctx context.Context, batch *Batch) error
	Close() error
}
