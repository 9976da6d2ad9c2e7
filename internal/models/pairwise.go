package models

// NeutralFrequency is reported for a pair with no shared history
const NeutralFrequency = 0.5

// PairwiseRecord is FromID's directional record against ToID.
// The reverse direction is a separate record.
type PairwiseRecord struct {
	FromID     CompetitorID `db:"from_id" json:"from_id"`
	ToID       CompetitorID `db:"to_id" json:"to_id"`
	TotalGames int          `db:"total_games" json:"total_games"`
	Wins       int          `db:"wins" json:"wins"`
	WinFreq    float64      `db:"win_freq" json:"win_freq"`
}

// NewPairwiseRecord returns an empty record for the ordered pair
func NewPairwiseRecord(from, to CompetitorID) *PairwiseRecord {
	return &PairwiseRecord{FromID: from, ToID: to}
}

// Estimate returns the empirical win frequency, or NeutralFrequency with no history
func (p *PairwiseRecord) Estimate() float64 {
	if p.TotalGames == 0 {
		return NeutralFrequency
	}
	return p.WinFreq
}

// Record applies one result from FromID's viewpoint. A draw counts toward the total only.
func (p *PairwiseRecord) Record(outcome Outcome) {
	if outcome == OutcomeWin {
		p.Wins++
	}
	p.TotalGames++
	p.WinFreq = float64(p.Wins) / float64(p.TotalGames)
}

// Clone returns a copy that shares no state with p
func (p *PairwiseRecord) Clone() *PairwiseRecord {
	cp := *p
	return &cp
}
