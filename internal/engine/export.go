package engine

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/yourusername/matchup-engine/internal/models"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// SideData holds one side's model scores and binary outcome
type SideData struct {
	RankScore float64 `json:"rank_score"`
	HistScore float64 `json:"hist_score"`
	La10Score float64 `json:"la10_score"`
	Outcome   uint8   `json:"outcome"`
}

// DataPackage is one game's training example from both sides
type DataPackage struct {
	Away SideData `json:"away"`
	Home SideData `json:"home"`
}

// NewDataPackage builds a training example from the three predictions.
// outcome is 1 for an away win and 0 otherwise; the home side gets outcome XOR 1.
func NewDataPackage(preds [modelCount]models.Prediction, outcome uint8) DataPackage {
	rank, hist, la10 := preds[0], preds[1], preds[2]
	return DataPackage{
		Away: SideData{RankScore: rank.ExpAway, HistScore: hist.ExpAway, La10Score: la10.ExpAway, Outcome: outcome},
		Home: SideData{RankScore: rank.ExpHome, HistScore: hist.ExpHome, La10Score: la10.ExpHome, Outcome: outcome ^ 1},
	}
}

// Uninformative reports whether either side carries no signal: an untouched
// rating (exactly 0.5) or a degenerate head-to-head frequency (exactly 0 or 1)
func (d DataPackage) Uninformative() bool {
	for _, side := range []SideData{d.Away, d.Home} {
		if side.RankScore == 0.5 || side.HistScore == 0.0 || side.HistScore == 1.0 {
			return true
		}
	}
	return false
}

// Row flattens the package into one training row
func (d DataPackage) Row() TrainingRow {
	return TrainingRow{
		AwayRank: d.Away.RankScore,
		HomeRank: d.Home.RankScore,
		AwayHist: d.Away.HistScore,
		HomeHist: d.Home.HistScore,
		AwayLa10: d.Away.La10Score,
		HomeLa10: d.Home.La10Score,
		Outcome:  d.Away.Outcome,
	}
}

// TrainingRow is the flat exported record
type TrainingRow struct {
	AwayRank float64 `json:"away_rank"`
	HomeRank float64 `json:"home_rank"`
	AwayHist float64 `json:"away_hist"`
	HomeHist float64 `json:"home_hist"`
	AwayLa10 float64 `json:"away_la10"`
	HomeLa10 float64 `json:"home_la10"`
	Outcome  uint8   `json:"outcome"`
}

var csvHeader = []string{"away_rank", "home_rank", "away_hist", "home_hist", "away_la10", "home_la10", "outcome"}

func (r TrainingRow) record() []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return []string{
		f(r.AwayRank), f(r.HomeRank),
		f(r.AwayHist), f(r.HomeHist),
		f(r.AwayLa10), f(r.HomeLa10),
		strconv.Itoa(int(r.Outcome)),
	}
}

// Exporter collects training rows from processed games
type Exporter struct {
	mu                sync.Mutex
	skipUninformative bool
	rows              []TrainingRow
	skipped           int
}

// NewExporter creates an exporter
func NewExporter(skipUninformative bool) *Exporter {
	return &Exporter{skipUninformative: skipUninformative}
}

// OnGameProcessed implements GameObserver
func (e *Exporter) OnGameProcessed(result GameResult) {
	var outcome uint8
	if result.Actual == models.OutcomeWin {
		outcome = 1
	}
	pkg := NewDataPackage(result.Predictions, outcome)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.skipUninformative && pkg.Uninformative() {
		e.skipped++
		return
	}
	e.rows = append(e.rows, pkg.Row())
}

// Rows returns a copy of the collected rows
func (e *Exporter) Rows() []TrainingRow {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]TrainingRow, len(e.rows))
	copy(out, e.rows)
	return out
}

// Skipped returns how many games were dropped as uninformative
func (e *Exporter) Skipped() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.skipped
}

// WriteCSV writes the rows with a header line
func (e *Exporter) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range e.Rows() {
		if err := cw.Write(row.record()); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the rows as an indented JSON array
func (e *Exporter) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e.Rows()); err != nil {
		return fmt.Errorf("failed to marshal export: %w", err)
	}
	return nil
}

// ExportToFile writes the rows to outputPath in the given format
func (e *Exporter) ExportToFile(outputPath, format string) error {
	if outputPath == "" {
		return fmt.Errorf("output path is required")
	}

	var write func(io.Writer) error
	switch format {
	case FormatCSV, "":
		write = e.WriteCSV
	case FormatJSON:
		write = e.WriteJSON
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return err
	}
	return f.Close()
}
