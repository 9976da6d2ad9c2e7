package predictor

import (
	"context"

	"github.com/yourusername/matchup-engine/internal/calibration"
	"github.com/yourusername/matchup-engine/internal/models"
	"github.com/yourusername/matchup-engine/internal/repository"
)

// HistoricalMatchupModel predicts from each side's directional head-to-head win frequency.
// The two expectations are independent and need not sum to 1.
type HistoricalMatchupModel struct {
	*recordModel[*models.PairwiseRecord]
}

// NewHistoricalMatchupModel creates the head-to-head model over the pairwise repository
func NewHistoricalMatchupModel(repo repository.PairwiseRepository, opts ...Option) *HistoricalMatchupModel {
	o := buildOptions(calibration.HistoricalResolution, opts)

	rules := recordRules[*models.PairwiseRecord]{
		load: func(ctx context.Context, away, home models.CompetitorID) (*models.PairwiseRecord, *models.PairwiseRecord, error) {
			ah, err := repo.Get(ctx, away, home)
			if err != nil {
				return nil, nil, err
			}
			ha, err := repo.Get(ctx, home, away)
			if err != nil {
				return nil, nil, err
			}
			return ah, ha, nil
		},
		save: func(ctx context.Context, away, home *models.PairwiseRecord) error {
			return repo.Update(ctx, away, home)
		},
		stage: func(batch *repository.Batch, away, home *models.PairwiseRecord) {
			batch.AddPairwise(away, home)
		},
		expect: func(away, home *models.PairwiseRecord) (float64, float64) {
			return away.Estimate(), home.Estimate()
		},
		apply: func(away, home *models.PairwiseRecord, outcome models.Outcome) (*models.PairwiseRecord, *models.PairwiseRecord) {
			newA, newH := away.Clone(), home.Clone()
			newA.Record(outcome)
			newH.Record(outcome.Invert())
			return newA, newH
		},
	}

	return &HistoricalMatchupModel{recordModel: newRecordModel(HistoricalModelName, rules, o)}
}
