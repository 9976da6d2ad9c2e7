package rating

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectedScoreSymmetry(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct {
		name string
		a, b Rating
	}{
		{"equal priors", NewRating(), NewRating()},
		{"stronger away", Rating{Mean: 30, Uncertainty: 4}, Rating{Mean: 22, Uncertainty: 6}},
		{"stronger home", Rating{Mean: 18, Uncertainty: 2}, Rating{Mean: 35, Uncertainty: 7}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ea, eh := ExpectedScore(tc.a, tc.b, cfg)
			assert.InDelta(t, 1.0, ea+eh, 1e-12)
			assert.GreaterOrEqual(t, ea, 0.0)
			assert.LessOrEqual(t, ea, 1.0)
		})
	}
}

func TestExpectedScoreEqualRatings(t *testing.T) {
	ea, eh := ExpectedScore(NewRating(), NewRating(), DefaultConfig())
	assert.Equal(t, 0.5, ea)
	assert.Equal(t, 0.5, eh)
}

func TestExpectedScoreMonotoneInGap(t *testing.T) {
	cfg := DefaultConfig()
	home := NewRating()
	prev := 0.0
	for mean := 10.0; mean <= 40.0; mean += 2.5 {
		ea, _ := ExpectedScore(Rating{Mean: mean, Uncertainty: DefaultUncertainty}, home, cfg)
		assert.Greater(t, ea, prev)
		prev = ea
	}
}

func TestUpdateAwayWinFromPriors(t *testing.T) {
	away, home := Update(NewRating(), NewRating(), 1.0, DefaultConfig())

	assert.Greater(t, away.Mean, DefaultMean)
	assert.Less(t, home.Mean, DefaultMean)
	assert.Less(t, away.Uncertainty, DefaultUncertainty)
	assert.Less(t, home.Uncertainty, DefaultUncertainty)
	// zero-sum on the means when uncertainties match
	assert.InDelta(t, 2*DefaultMean, away.Mean+home.Mean, 1e-9)
}

func TestUpdateKnownValues(t *testing.T) {
	away, home := Update(NewRating(), NewRating(), 1.0, DefaultConfig())

	c := math.Sqrt(2*DefaultUncertainty*DefaultUncertainty + 2*DefaultBeta*DefaultBeta)
	wantMean := DefaultMean + DefaultUncertainty*DefaultUncertainty/c*0.5
	assert.InDelta(t, wantMean, away.Mean, 1e-9)
	assert.InDelta(t, 2*DefaultMean-wantMean, home.Mean, 1e-9)

	gamma := DefaultUncertainty / c
	eta := gamma * gamma * gamma * 0.25
	assert.InDelta(t, DefaultUncertainty*math.Sqrt(1-eta), away.Uncertainty, 1e-9)
}

func TestUpdateDrawKeepsEqualMeans(t *testing.T) {
	away, home := Update(NewRating(), NewRating(), 0.5, DefaultConfig())
	assert.InDelta(t, DefaultMean, away.Mean, 1e-12)
	assert.InDelta(t, DefaultMean, home.Mean, 1e-12)
	assert.Less(t, away.Uncertainty, DefaultUncertainty)
}

func TestUncertaintyNeverIncreases(t *testing.T) {
	cfg := DefaultConfig()
	a, b := NewRating(), NewRating()
	for i := 0; i < 500; i++ {
		score := float64(i % 2)
		na, nb := Update(a, b, score, cfg)
		require.LessOrEqual(t, na.Uncertainty, a.Uncertainty)
		require.LessOrEqual(t, nb.Uncertainty, b.Uncertainty)
		require.Greater(t, na.Uncertainty, 0.0)
		a, b = na, nb
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{Beta: 0, UncertaintyTolerance: 0.1}.Validate())
	assert.Error(t, Config{Beta: 1, UncertaintyTolerance: 0}.Validate())
	assert.Error(t, Config{Beta: 1, UncertaintyTolerance: 1}.Validate())
}

func TestMMR(t *testing.T) {
	assert.Equal(t, 1000, NewRating().MMR())
	assert.Equal(t, 0, MMR(0, 20))
	assert.Equal(t, 1400, MMR(10, 0))
	assert.Equal(t, 1200, MMR(20, 5))
}
