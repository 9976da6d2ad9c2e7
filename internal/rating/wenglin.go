// Package rating implements the Weng-Lin Bayesian rating update for two-sided matches.
package rating

import (
	"fmt"
	"math"
)

// Default rating parameters.
const (
	DefaultMean                 = 25.0
	DefaultUncertainty          = 8.33
	DefaultBeta                 = 25.0 / 6.0
	DefaultUncertaintyTolerance = 0.000001
)

// Rating is a Bayesian skill estimate: higher Mean is stronger, lower Uncertainty is more confident
type Rating struct {
	Mean        float64 `db:"rating_mean" json:"mean"`
	Uncertainty float64 `db:"rating_uncertainty" json:"uncertainty"`
}

// NewRating returns the conservative wide prior every competitor starts from
func NewRating() Rating {
	return Rating{Mean: DefaultMean, Uncertainty: DefaultUncertainty}
}

// Config holds the Weng-Lin parameters
type Config struct {
	// Beta is the competitor-level skill spread.
	Beta float64
	// UncertaintyTolerance bounds the variance shrink factor from below.
	UncertaintyTolerance float64
}

// DefaultConfig returns the standard Weng-Lin parameters
func DefaultConfig() Config {
	return Config{
		Beta:                 DefaultBeta,
		UncertaintyTolerance: DefaultUncertaintyTolerance,
	}
}

// Validate validates rating parameters
func (c Config) Validate() error {
	if c.Beta <= 0 || math.IsNaN(c.Beta) {
		return fmt.Errorf("beta must be positive")
	}
	if c.UncertaintyTolerance <= 0 || c.UncertaintyTolerance >= 1 {
		return fmt.Errorf("uncertainty tolerance must be in (0, 1)")
	}
	return nil
}

func (c Config) spread(a, b Rating) float64 {
	return math.Sqrt(a.Uncertainty*a.Uncertainty + b.Uncertainty*b.Uncertainty + 2*c.Beta*c.Beta)
}

// ExpectedScore returns the expected scores of a and b; they always sum to 1
func ExpectedScore(a, b Rating, cfg Config) (float64, float64) {
	c := cfg.spread(a, b)
	expA := 1.0 / (1.0 + math.Exp((b.Mean-a.Mean)/c))
	return expA, 1.0 - expA
}

// Update applies one observed match to both ratings. score is a's result: 1 win, 0 loss, 0.5 draw.
func Update(a, b Rating, score float64, cfg Config) (Rating, Rating) {
	c := cfg.spread(a, b)
	expA, expB := ExpectedScore(a, b, cfg)

	newA := Rating{
		Mean:        a.Mean + (a.Uncertainty*a.Uncertainty/c)*(score-expA),
		Uncertainty: shrink(a.Uncertainty, c, expA, cfg.UncertaintyTolerance),
	}
	newB := Rating{
		Mean:        b.Mean + (b.Uncertainty*b.Uncertainty/c)*((1.0-score)-expB),
		Uncertainty: shrink(b.Uncertainty, c, expB, cfg.UncertaintyTolerance),
	}
	return newA, newB
}

func shrink(sigma, c, p, tolerance float64) float64 {
	gamma := sigma / c
	eta := gamma * (sigma * sigma / (c * c)) * p * (1.0 - p)
	return math.Sqrt(sigma * sigma * math.Max(1.0-eta, tolerance))
}
