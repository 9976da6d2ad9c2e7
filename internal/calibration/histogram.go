// Package calibration discretizes probability space into buckets to compare stated
// probabilities with observed frequencies.
package calibration

import (
	"fmt"
	"math"

	"github.com/yourusername/matchup-engine/internal/models"
)

// Default resolutions per model
const (
	SkillResolution      = 1000
	HistoricalResolution = 1000
	WindowResolution     = 10
)

// Distribution is the empirical probability mass and cumulative distribution of a histogram
type Distribution struct {
	PMF []float64 `json:"pmf"`
	CDF []float64 `json:"cdf"`
}

// Histogram counts samples over Resolution+1 buckets covering [0, 1]
type Histogram struct {
	resolution int
	counts     []uint64
	total      uint64
}

// NewHistogram creates a histogram with resolution+1 buckets
func NewHistogram(resolution int) *Histogram {
	if resolution <= 0 {
		resolution = SkillResolution
	}
	return &Histogram{
		resolution: resolution,
		counts:     make([]uint64, resolution+1),
	}
}

// Resolution returns M, the index of the last bucket
func (h *Histogram) Resolution() int {
	return h.resolution
}

// Size returns the number of buckets
func (h *Histogram) Size() int {
	return len(h.counts)
}

// Bucket maps a probability to its bucket index
func (h *Histogram) Bucket(p float64) int {
	return BucketFor(p, h.resolution)
}

// BucketFor maps p to round(p*resolution), clamped to [0, resolution]
func BucketFor(p float64, resolution int) int {
	if math.IsNaN(p) || p <= 0 {
		return 0
	}
	idx := int(math.Round(p * float64(resolution)))
	if idx > resolution {
		return resolution
	}
	return idx
}

// Add records a sample at the bucket of p
func (h *Histogram) Add(p float64) int {
	idx := h.Bucket(p)
	h.counts[idx]++
	h.total++
	return idx
}

// AddIndex records a sample at an explicit bucket
func (h *Histogram) AddIndex(idx int) error {
	if idx < 0 || idx >= len(h.counts) {
		return fmt.Errorf("bucket %d outside [0, %d]: %w", idx, h.resolution, models.ErrInvariantViolation)
	}
	h.counts[idx]++
	h.total++
	return nil
}

// Count returns the number of samples in a bucket
func (h *Histogram) Count(idx int) uint64 {
	if idx < 0 || idx >= len(h.counts) {
		return 0
	}
	return h.counts[idx]
}

// Total returns the number of samples recorded
func (h *Histogram) Total() uint64 {
	return h.total
}

// Counts returns a copy of the bucket counts
func (h *Histogram) Counts() []uint64 {
	out := make([]uint64, len(h.counts))
	copy(out, h.counts)
	return out
}

// Reset clears all samples
func (h *Histogram) Reset() {
	for i := range h.counts {
		h.counts[i] = 0
	}
	h.total = 0
}

// Clone returns an independent copy
func (h *Histogram) Clone() *Histogram {
	return &Histogram{
		resolution: h.resolution,
		counts:     h.Counts(),
		total:      h.total,
	}
}

// Distribution returns the PMF and CDF. The last CDF entry is forced to exactly 1.
func (h *Histogram) Distribution() Distribution {
	n := len(h.counts)
	dist := Distribution{
		PMF: make([]float64, n),
		CDF: make([]float64, n),
	}
	if h.total > 0 {
		total := float64(h.total)
		sum := 0.0
		for i, c := range h.counts {
			dist.PMF[i] = float64(c) / total
			sum += dist.PMF[i]
			dist.CDF[i] = sum
		}
	}
	dist.CDF[n-1] = 1.0
	return dist
}
