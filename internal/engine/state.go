package engine

import (
	"time"

	"github.com/yourusername/matchup-engine/internal/models"
)

// modelCount is the number of models an orchestrator drives
const modelCount = 3

// State tracks the per-session counters of an orchestrator
type State struct {
	Games      int
	Correct    [modelCount]int
	LastGameID int64
	StartedAt  time.Time
	UpdatedAt  time.Time
}

// NewState initializes session state
func NewState() *State {
	now := time.Now().UTC()
	return &State{StartedAt: now, UpdatedAt: now}
}

// UpdateState folds one game's predictions into the counters.
// It returns which models predicted the actual outcome.
func (s *State) UpdateState(gameID int64, preds [modelCount]models.Prediction, actual models.Outcome) [modelCount]bool {
	var hits [modelCount]bool
	for i, p := range preds {
		if p.Hit(actual) {
			s.Correct[i]++
			hits[i] = true
		}
	}
	s.Games++
	s.LastGameID = gameID
	s.UpdatedAt = time.Now().UTC()
	return hits
}

// Ratio returns correct/games for one model, or 0 before any game
func (s *State) Ratio(model int) float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Correct[model]) / float64(s.Games)
}

// Clone returns a copy of the state
func (s *State) Clone() *State {
	c := *s
	return &c
}
