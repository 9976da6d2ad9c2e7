package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Outcome is a match result from the viewpoint of one named side (the away side)
type Outcome int

// Outcome constants
const (
	OutcomeLoss Outcome = iota
	OutcomeWin
	OutcomeDraw
)

// OutcomeFromScores derives the away side's outcome from a final score
func OutcomeFromScores(awayScore, homeScore int) Outcome {
	switch {
	case awayScore > homeScore:
		return OutcomeWin
	case awayScore < homeScore:
		return OutcomeLoss
	default:
		return OutcomeDraw
	}
}

// Invert returns the same result seen from the other side
func (o Outcome) Invert() Outcome {
	switch o {
	case OutcomeWin:
		return OutcomeLoss
	case OutcomeLoss:
		return OutcomeWin
	default:
		return o
	}
}

// Score returns the chess-style score: 1 for a win, 0 for a loss, 0.5 for a draw
func (o Outcome) Score() float64 {
	switch o {
	case OutcomeWin:
		return 1.0
	case OutcomeDraw:
		return 0.5
	default:
		return 0.0
	}
}

// Code returns the single-letter storage code
func (o Outcome) Code() byte {
	switch o {
	case OutcomeWin:
		return 'W'
	case OutcomeDraw:
		return 'D'
	default:
		return 'L'
	}
}

// OutcomeFromCode parses a single-letter storage code
func OutcomeFromCode(c byte) (Outcome, error) {
	switch c {
	case 'W':
		return OutcomeWin, nil
	case 'L':
		return OutcomeLoss, nil
	case 'D':
		return OutcomeDraw, nil
	default:
		return OutcomeLoss, fmt.Errorf("unknown outcome code %q", c)
	}
}

// String implements fmt.Stringer
func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "WIN"
	case OutcomeDraw:
		return "DRAW"
	default:
		return "LOSS"
	}
}

// MarshalJSON encodes the outcome as its name
func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON decodes an outcome name
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch strings.ToUpper(s) {
	case "WIN":
		*o = OutcomeWin
	case "LOSS":
		*o = OutcomeLoss
	case "DRAW":
		*o = OutcomeDraw
	default:
		return fmt.Errorf("unknown outcome %q", s)
	}
	return nil
}

// EncodeOutcomes packs outcomes oldest first into a code string such as "WWLD"
func EncodeOutcomes(outcomes []Outcome) string {
	buf := make([]byte, len(outcomes))
	for i, o := range outcomes {
		buf[i] = o.Code()
	}
	return string(buf)
}

// DecodeOutcomes reverses EncodeOutcomes
func DecodeOutcomes(s string) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(s))
	for i := 0; i < len(s); i++ {
		o, err := OutcomeFromCode(s[i])
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}
