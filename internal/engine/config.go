package engine

import (
	"fmt"

	"github.com/yourusername/matchup-engine/internal/calibration"
	"github.com/yourusername/matchup-engine/internal/config"
	"github.com/yourusername/matchup-engine/internal/rating"
)

// Config holds the model parameters an orchestrator is built with
type Config struct {
	Rating               rating.Config
	SkillResolution      int
	HistoricalResolution int
	WindowResolution     int
}

// DefaultConfig returns the standard resolutions and Weng-Lin parameters
func DefaultConfig() Config {
	return Config{
		Rating:               rating.DefaultConfig(),
		SkillResolution:      calibration.SkillResolution,
		HistoricalResolution: calibration.HistoricalResolution,
		WindowResolution:     calibration.WindowResolution,
	}
}

// FromConfig converts app config to engine config
func FromConfig(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, fmt.Errorf("config is required")
	}

	ec := Config{
		Rating: rating.Config{
			Beta:                 cfg.Rating.Beta,
			UncertaintyTolerance: cfg.Rating.UncertaintyTolerance,
		},
		SkillResolution:      cfg.Models.RatingBuckets,
		HistoricalResolution: cfg.Models.HistoricalBuckets,
		WindowResolution:     cfg.Models.WindowBuckets,
	}

	return ec, ec.Validate()
}

// Validate validates engine config parameters
func (c Config) Validate() error {
	if err := c.Rating.Validate(); err != nil {
		return fmt.Errorf("invalid rating config: %w", err)
	}
	if c.SkillResolution <= 0 || c.HistoricalResolution <= 0 || c.WindowResolution <= 0 {
		return fmt.Errorf("model resolutions must be positive")
	}
	return nil
}
