package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/matchup-engine/internal/calibration"
)

// CalibrationSummary summarizes one model's calibration histogram
type CalibrationSummary struct {
	Model      string  `json:"model"`
	Resolution int     `json:"resolution"`
	Samples    uint64  `json:"samples"`
	Median     float64 `json:"median"`
}

// AccuracyReport is the end-of-run summary
type AccuracyReport struct {
	RunID       string               `json:"run_id"`
	Games       int                  `json:"games"`
	StartedAt   time.Time            `json:"started_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Accuracy    []ModelAccuracy      `json:"accuracy"`
	Calibration []CalibrationSummary `json:"calibration"`
	JointCells  int                  `json:"joint_cells"`
}

// Report builds an accuracy report for the current session
func (o *Orchestrator) Report() AccuracyReport {
	state := o.State()
	report := AccuracyReport{
		RunID:     o.RunID().String(),
		Games:     state.Games,
		StartedAt: state.StartedAt,
		UpdatedAt: state.UpdatedAt,
		Accuracy:  o.Accuracy(),
	}

	for _, name := range o.ModelNames() {
		hist, err := o.Calibration(name)
		if err != nil {
			continue
		}
		report.Calibration = append(report.Calibration, CalibrationSummary{
			Model:      name,
			Resolution: hist.Resolution(),
			Samples:    hist.Total(),
			Median:     median(hist),
		})
	}
	report.JointCells = len(o.Joint().Cells())
	return report
}

// median returns the probability at the first bucket whose CDF reaches one half
func median(hist *calibration.Histogram) float64 {
	if hist.Total() == 0 {
		return 0
	}
	dist := hist.Distribution()
	for i, c := range dist.CDF {
		if c >= 0.5 {
			return float64(i) / float64(hist.Resolution())
		}
	}
	return 1
}

// GenerateConsoleReport formats a report for terminal output
func GenerateConsoleReport(report AccuracyReport) string {
	var builder strings.Builder
	builder.WriteString("Accuracy Report\n")
	builder.WriteString("===============\n")
	builder.WriteString(fmt.Sprintf("Run: %s\n", report.RunID))
	builder.WriteString(fmt.Sprintf("Games processed: %d\n", report.Games))
	for _, acc := range report.Accuracy {
		builder.WriteString(fmt.Sprintf("The %s model predicted %d of %d games, accuracy %.2f%%\n",
			acc.Model, acc.Correct, acc.Total, acc.Ratio*100))
	}
	for _, cal := range report.Calibration {
		builder.WriteString(fmt.Sprintf("Calibration %s: %d samples, M=%d, median winner expectation %.3f\n",
			cal.Model, cal.Samples, cal.Resolution, cal.Median))
	}
	builder.WriteString(fmt.Sprintf("Joint histogram cells used: %d\n", report.JointCells))
	return builder.String()
}
