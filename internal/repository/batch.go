package repository

import (
	"context"
	"fmt"

	"github.com/yourusername/matchup-engine/internal/models"
)

// Batch holds every record change of one game. Apply writes all of it, including the
// ledger entry for GameID, or none of it.
type Batch struct {
	GameID      int64
	Competitors []*models.Competitor
	Pairwise    []*models.PairwiseRecord
	Windows     []*models.RollingWindow
}

// AddCompetitors stages rating changes
func (b *Batch) AddCompetitors(competitors ...*models.Competitor) {
	b.Competitors = append(b.Competitors, competitors...)
}

// AddPairwise stages head-to-head record changes
func (b *Batch) AddPairwise(records ...*models.PairwiseRecord) {
	b.Pairwise = append(b.Pairwise, records...)
}

// AddWindows stages rolling window changes
func (b *Batch) AddWindows(windows ...*models.RollingWindow) {
	b.Windows = append(b.Windows, windows...)
}

// Empty reports whether the batch changes nothing
func (b *Batch) Empty() bool {
	return len(b.Competitors) == 0 && len(b.Pairwise) == 0 && len(b.Windows) == 0
}

func (b *Batch) validate() error {
	for _, w := range b.Windows {
		if err := w.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Apply writes the batch in one atomic step and marks its game processed
func (r *Repositories) Apply(ctx context.Context, batch *Batch) error {
	if batch == nil {
		return nil
	}
	if err := batch.validate(); err != nil {
		return fmt.Errorf("failed to apply game %d: %w", batch.GameID, err)
	}
	if err := r.store.Apply(ctx, batch); err != nil {
		return fmt.Errorf("failed to apply game %d: %w", batch.GameID, err)
	}
	return nil
}
