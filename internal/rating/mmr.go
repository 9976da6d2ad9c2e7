package rating

import "math"

const (
	baseMMR   = 1000.0
	mmrSigmas = 3.0
	mmrScale  = 40.0
)

// MMR converts a rating into a conservative integer display value (lower confidence bound).
// It is never used in prediction math.
func MMR(mean, uncertainty float64) int {
	v := math.Round(baseMMR + (mean-mmrSigmas*uncertainty)*mmrScale)
	if v < 0 {
		return 0
	}
	return int(v)
}

// MMR returns the display value of r
func (r Rating) MMR() int {
	return MMR(r.Mean, r.Uncertainty)
}
