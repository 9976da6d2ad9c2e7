package predictor

import (
	"context"

	"github.com/yourusername/matchup-engine/internal/calibration"
	"github.com/yourusername/matchup-engine/internal/models"
	"github.com/yourusername/matchup-engine/internal/repository"
)

// LastNGamesModel predicts from each competitor's wins over its last N games.
// The denominator is always N, so short windows are shrunk toward zero.
type LastNGamesModel struct {
	*recordModel[*models.RollingWindow]
}

// NewLastNGamesModel creates the recent-form model over the window repository
func NewLastNGamesModel(repo repository.WindowRepository, opts ...Option) *LastNGamesModel {
	o := buildOptions(calibration.WindowResolution, opts)

	rules := recordRules[*models.RollingWindow]{
		load: func(ctx context.Context, away, home models.CompetitorID) (*models.RollingWindow, *models.RollingWindow, error) {
			a, err := repo.Get(ctx, away)
			if err != nil {
				return nil, nil, err
			}
			h, err := repo.Get(ctx, home)
			if err != nil {
				return nil, nil, err
			}
			return a, h, nil
		},
		save: func(ctx context.Context, away, home *models.RollingWindow) error {
			return repo.Update(ctx, away, home)
		},
		stage: func(batch *repository.Batch, away, home *models.RollingWindow) {
			batch.AddWindows(away, home)
		},
		expect: func(away, home *models.RollingWindow) (float64, float64) {
			return away.Estimate(), home.Estimate()
		},
		apply: func(away, home *models.RollingWindow, outcome models.Outcome) (*models.RollingWindow, *models.RollingWindow) {
			newA, newH := away.Clone(), home.Clone()
			newA.Push(outcome)
			newH.Push(outcome.Invert())
			return newA, newH
		},
	}

	return &LastNGamesModel{recordModel: newRecordModel(LastNModelName, rules, o)}
}
