package predictor

import (
	"context"

	"github.com/yourusername/matchup-engine/internal/calibration"
	"github.com/yourusername/matchup-engine/internal/models"
	"github.com/yourusername/matchup-engine/internal/rating"
	"github.com/yourusername/matchup-engine/internal/repository"
)

// SkillRatingModel predicts from the Weng-Lin rating gap and updates both ratings after each game
type SkillRatingModel struct {
	*recordModel[*models.Competitor]
	cfg rating.Config
}

// NewSkillRatingModel creates the rating model over the competitor repository
func NewSkillRatingModel(repo repository.CompetitorRepository, cfg rating.Config, opts ...Option) *SkillRatingModel {
	o := buildOptions(calibration.SkillResolution, opts)
	m := &SkillRatingModel{cfg: cfg}

	rules := recordRules[*models.Competitor]{
		load: func(ctx context.Context, away, home models.CompetitorID) (*models.Competitor, *models.Competitor, error) {
			a, err := repo.GetByID(ctx, away)
			if err != nil {
				return nil, nil, err
			}
			h, err := repo.GetByID(ctx, home)
			if err != nil {
				return nil, nil, err
			}
			return a, h, nil
		},
		save: func(ctx context.Context, away, home *models.Competitor) error {
			return repo.UpdateRatings(ctx, away, home)
		},
		stage: func(batch *repository.Batch, away, home *models.Competitor) {
			batch.AddCompetitors(away, home)
		},
		expect: func(away, home *models.Competitor) (float64, float64) {
			return rating.ExpectedScore(away.Rating, home.Rating, m.cfg)
		},
		apply: func(away, home *models.Competitor, outcome models.Outcome) (*models.Competitor, *models.Competitor) {
			newA, newH := away.Clone(), home.Clone()
			newA.Rating, newH.Rating = rating.Update(away.Rating, home.Rating, outcome.Score(), m.cfg)
			return newA, newH
		},
		stored: func(away, home, newA, newH *models.Competitor) {
			m.log.LogRatingChange(away.Abbrev, away.MMR(), newA.MMR(), newA.Rating.Mean, newA.Rating.Uncertainty)
			m.log.LogRatingChange(home.Abbrev, home.MMR(), newH.MMR(), newH.Rating.Mean, newH.Rating.Uncertainty)
		},
	}

	m.recordModel = newRecordModel(SkillModelName, rules, o)
	return m
}

// PredictAndGet predicts, applies the outcome and returns both competitors' updated ratings
func (m *SkillRatingModel) PredictAndGet(ctx context.Context, away, home models.CompetitorID, outcome models.Outcome) (*models.Competitor, *models.Competitor, models.Prediction, error) {
	return m.predictAndUpdate(ctx, away, home, outcome)
}

// Config returns the rating parameters
func (m *SkillRatingModel) Config() rating.Config {
	return m.cfg
}
