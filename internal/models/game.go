package models

import "time"

// GameType codes used by the scoreboard feed
const (
	GameTypePreseason     = 1
	GameTypeRegularSeason = 2
	GameTypePlayoffs      = 3
)

// Game is one finished match as handed to the engine
type Game struct {
	ID        int64        `db:"id" json:"id"`
	StartTime time.Time    `db:"start_time" json:"start_time"`
	AwayID    CompetitorID `db:"away_id" json:"away_id"`
	HomeID    CompetitorID `db:"home_id" json:"home_id"`
	AwayScore int          `db:"away_score" json:"away_score"`
	HomeScore int          `db:"home_score" json:"home_score"`
	GameType  int          `db:"game_type" json:"game_type"`
}

// Outcome returns the result from the away side's viewpoint
func (g *Game) Outcome() Outcome {
	return OutcomeFromScores(g.AwayScore, g.HomeScore)
}

// IDs returns the away and home competitor ids
func (g *Game) IDs() (CompetitorID, CompetitorID) {
	return g.AwayID, g.HomeID
}

// IsRegularSeason reports whether the game counts toward the regular season
func (g *Game) IsRegularSeason() bool {
	return g.GameType == GameTypeRegularSeason
}
