package models

import "fmt"

// DefaultWindowCapacity is the number of recent outcomes a rolling window keeps
const DefaultWindowCapacity = 10

// RollingWindow holds a competitor's most recent outcomes, oldest first.
// Draws are counted on the Losses side so that Wins+Losses always equals len(Outcomes).
type RollingWindow struct {
	ID       CompetitorID `db:"id" json:"id"`
	Wins     int          `db:"wins" json:"wins"`
	Losses   int          `db:"losses" json:"losses"`
	Outcomes []Outcome    `db:"outcomes" json:"outcomes"`
	Capacity int          `db:"capacity" json:"capacity"`
}

// NewRollingWindow returns an empty window
func NewRollingWindow(id CompetitorID, capacity int) *RollingWindow {
	if capacity <= 0 {
		capacity = DefaultWindowCapacity
	}
	return &RollingWindow{
		ID:       id,
		Outcomes: make([]Outcome, 0, capacity),
		Capacity: capacity,
	}
}

// Push appends the newest outcome and evicts the oldest once over capacity
func (w *RollingWindow) Push(outcome Outcome) {
	w.count(outcome, 1)
	w.Outcomes = append(w.Outcomes, outcome)
	if len(w.Outcomes) > w.Capacity {
		oldest := w.Outcomes[0]
		w.Outcomes = w.Outcomes[1:]
		w.count(oldest, -1)
	}
}

func (w *RollingWindow) count(outcome Outcome, delta int) {
	if outcome == OutcomeWin {
		w.Wins += delta
	} else {
		w.Losses += delta
	}
}

// Estimate returns wins over the full capacity, so short windows are shrunk toward zero
func (w *RollingWindow) Estimate() float64 {
	if w.Capacity <= 0 {
		return 0
	}
	return float64(w.Wins) / float64(w.Capacity)
}

// Len returns the number of outcomes held
func (w *RollingWindow) Len() int {
	return len(w.Outcomes)
}

// Validate checks the window invariants
func (w *RollingWindow) Validate() error {
	if len(w.Outcomes) > w.Capacity {
		return fmt.Errorf("window %s holds %d outcomes over capacity %d: %w", w.ID, len(w.Outcomes), w.Capacity, ErrInvariantViolation)
	}
	if w.Wins+w.Losses != len(w.Outcomes) {
		return fmt.Errorf("window %s counts %d+%d for %d outcomes: %w", w.ID, w.Wins, w.Losses, len(w.Outcomes), ErrInvariantViolation)
	}
	return nil
}

// Clone returns a copy that shares no state with w
func (w *RollingWindow) Clone() *RollingWindow {
	cp := *w
	cp.Outcomes = append(make([]Outcome, 0, w.Capacity), w.Outcomes...)
	return &cp
}

// RestoreWindow rebuilds a window from its stored outcome codes. The stored win and loss
// counts must match the outcomes, and the outcomes must fit the capacity.
func RestoreWindow(id CompetitorID, capacity, wins, losses int, codes string) (*RollingWindow, error) {
	outcomes, err := DecodeOutcomes(codes)
	if err != nil {
		return nil, fmt.Errorf("failed to decode window %s: %w", id, err)
	}
	w := NewRollingWindow(id, capacity)
	if len(outcomes) > w.Capacity {
		return nil, fmt.Errorf("window %s stores %d outcomes over capacity %d: %w", id, len(outcomes), w.Capacity, ErrInvariantViolation)
	}
	for _, o := range outcomes {
		w.Push(o)
	}
	if w.Wins != wins || w.Losses != losses {
		return nil, fmt.Errorf("window %s stores %d+%d but its outcomes count %d+%d: %w", id, wins, losses, w.Wins, w.Losses, ErrInvariantViolation)
	}
	return w, nil
}
