package service

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/matchup-engine/internal/datasource"
)

// GameValidator checks fetched games before they reach the models
type GameValidator struct {
	logger *logrus.Entry
}

// NewGameValidator creates a new game validator
func NewGameValidator(logger *logrus.Logger) *GameValidator {
	if logger == nil {
		logger = logrus.New()
	}
	return &GameValidator{logger: logger.WithField("component", "validator")}
}

// ValidateGame validates game data for required fields and constraints
func (v *GameValidator) ValidateGame(data datasource.GameData) []string {
	var errors []string
	g := data.Game

	if g.ID <= 0 {
		errors = append(errors, fmt.Sprintf("game id must be positive, got %d", g.ID))
	}
	if g.AwayID <= 0 || g.HomeID <= 0 {
		errors = append(errors, fmt.Sprintf("competitor ids must be positive, got %s and %s", g.AwayID, g.HomeID))
	}
	if g.AwayID == g.HomeID {
		errors = append(errors, fmt.Sprintf("competitor %s cannot play itself", g.AwayID))
	}
	if g.AwayScore < 0 || g.HomeScore < 0 {
		errors = append(errors, fmt.Sprintf("scores cannot be negative, got %d-%d", g.AwayScore, g.HomeScore))
	}
	if g.StartTime.IsZero() {
		errors = append(errors, "start time is required")
	}
	if data.Away.Abbrev == "" || data.Home.Abbrev == "" {
		errors = append(errors, "competitor abbrev is required")
	}

	if len(errors) > 0 {
		v.logger.WithFields(logrus.Fields{"game_id": g.ID, "errors": errors}).Warn("Game failed validation")
	}
	return errors
}
