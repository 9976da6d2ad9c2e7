package models

import (
	"strconv"
	"time"

	"github.com/yourusername/matchup-engine/internal/rating"
)

// CompetitorID is the opaque key of a competitor as issued by the game source
type CompetitorID int64

// String implements fmt.Stringer
func (id CompetitorID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Competitor represents a team and its current skill rating
type Competitor struct {
	ID        CompetitorID  `db:"id" json:"id" validate:"required"`
	Name      string        `db:"name" json:"name" validate:"required"`
	Abbrev    string        `db:"abbreviation" json:"abbrev" validate:"required"`
	Rating    rating.Rating `json:"rating"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// NewCompetitor creates a competitor at the default prior
func NewCompetitor(id CompetitorID, name, abbrev string) *Competitor {
	return &Competitor{
		ID:     id,
		Name:   name,
		Abbrev: abbrev,
		Rating: rating.NewRating(),
	}
}

// MMR returns the display rating
func (c *Competitor) MMR() int {
	return c.Rating.MMR()
}

// Clone returns a copy that shares no state with c
func (c *Competitor) Clone() *Competitor {
	cp := *c
	return &cp
}
