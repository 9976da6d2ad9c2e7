package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// DrawEpsilon is the tolerance under which two expectations signal a draw
const DrawEpsilon = 1e-5

// Prediction is one model's expectation for both sides of a match
type Prediction struct {
	ExpAway float64 `json:"exp_away" validate:"gte=0,lte=1"`
	ExpHome float64 `json:"exp_home" validate:"gte=0,lte=1"`
	Outcome Outcome `json:"outcome"`
}

// PredictionFromExpectations picks the side with the larger expectation, or a draw
// when both are within DrawEpsilon
func PredictionFromExpectations(expAway, expHome float64) Prediction {
	return Prediction{
		ExpAway: expAway,
		ExpHome: expHome,
		Outcome: OutcomeFromExpectations(expAway, expHome),
	}
}

// OutcomeFromExpectations applies the shared draw rule
func OutcomeFromExpectations(expAway, expHome float64) Outcome {
	switch {
	case math.Abs(expAway-expHome) < DrawEpsilon:
		return OutcomeDraw
	case expAway > expHome:
		return OutcomeWin
	default:
		return OutcomeLoss
	}
}

// Favored returns the larger of the two expectations
func (p Prediction) Favored() float64 {
	if p.ExpAway > p.ExpHome {
		return p.ExpAway
	}
	return p.ExpHome
}

// WinnerExpectation returns the expectation of the side that actually won.
// Anything other than an away win selects the home side.
func (p Prediction) WinnerExpectation(actual Outcome) float64 {
	if actual == OutcomeWin {
		return p.ExpAway
	}
	return p.ExpHome
}

// Hit reports whether the predicted outcome matches the actual one
func (p Prediction) Hit(actual Outcome) bool {
	return p.Outcome == actual
}

// FairOdds converts a probability into decimal odds without margin, rounded to 2dp.
// Zero or negative probabilities yield zero.
func FairOdds(probability float64) decimal.Decimal {
	if probability <= 0 || math.IsNaN(probability) {
		return decimal.Zero
	}
	return decimal.NewFromInt(1).Div(decimal.NewFromFloat(probability)).Round(2)
}
