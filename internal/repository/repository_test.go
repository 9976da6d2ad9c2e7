package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/matchup-engine/internal/database"
	"github.com/yourusername/matchup-engine/internal/models"
	"github.com/yourusername/matchup-engine/internal/rating"
)

type backend struct {
	name string
	open func(t *testing.T) *Repositories
}

func backends() []backend {
	return []backend{
		{"memory", func(t *testing.T) *Repositories { return NewMemoryRepositories() }},
		{"sqlite", func(t *testing.T) *Repositories {
			repos, err := NewSQLiteRepositories(database.SetupTestSQLite(t))
			require.NoError(t, err)
			return repos
		}},
		{"postgres", func(t *testing.T) *Repositories {
			db := database.SetupTestDB(t)
			repos, err := NewRepositories(db)
			require.NoError(t, err)
			require.NoError(t, repos.Reset(context.Background()))
			return repos
		}},
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, repos *Repositories)) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			fn(t, b.open(t))
		})
	}
}

func registerThree(t *testing.T, repos *Repositories) {
	t.Helper()
	ctx := context.Background()
	for _, c := range []*models.Competitor{
		repos.NewCompetitor(10, "Toronto Maple Leafs", "TOR"),
		repos.NewCompetitor(8, "Montreal Canadiens", "MTL"),
		repos.NewCompetitor(6, "Boston Bruins", "BOS"),
	} {
		require.NoError(t, repos.Register(ctx, c))
	}
}

func TestRegisterCreatesAllRecords(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()
		registerThree(t, repos)

		list, err := repos.Competitor.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, models.CompetitorID(6), list[0].ID)

		for _, from := range []models.CompetitorID{6, 8, 10} {
			w, err := repos.Window.Get(ctx, from)
			require.NoError(t, err)
			assert.Equal(t, 0, w.Len())
			assert.Equal(t, models.DefaultWindowCapacity, w.Capacity)

			for _, to := range []models.CompetitorID{6, 8, 10} {
				rec, err := repos.Pairwise.Get(ctx, from, to)
				if from == to {
					assert.True(t, errors.Is(err, models.ErrNotFound))
					continue
				}
				require.NoError(t, err)
				assert.Equal(t, models.NeutralFrequency, rec.Estimate())
			}
		}
	})
}

func TestRegisterIsIdempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()
		registerThree(t, repos)
		registerThree(t, repos)

		list, err := repos.Competitor.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 3)
	})
}

func TestRegisterRejectsTakenAbbrev(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()
		registerThree(t, repos)

		err := repos.Register(ctx, repos.NewCompetitor(99, "Toronto Arenas", "TOR"))
		assert.True(t, errors.Is(err, models.ErrDuplicateKey))

		_, err = repos.Window.Get(ctx, 99)
		assert.True(t, errors.Is(err, models.ErrNotFound))
	})
}

func TestRegisterRejectsInvalidID(t *testing.T) {
	repos := NewMemoryRepositories()
	err := repos.Register(context.Background(), models.NewCompetitor(0, "Nobody", "NOB"))
	assert.True(t, errors.Is(err, models.ErrInvalidID))
}

func TestCompetitorLookups(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()
		registerThree(t, repos)

		c, err := repos.Competitor.GetByAbbrev(ctx, "MTL")
		require.NoError(t, err)
		assert.Equal(t, models.CompetitorID(8), c.ID)
		assert.Equal(t, rating.DefaultMean, c.Rating.Mean)
		assert.Equal(t, 1000, c.MMR())

		_, err = repos.Competitor.GetByID(ctx, 99)
		assert.True(t, errors.Is(err, models.ErrNotFound))
		_, err = repos.Competitor.GetByAbbrev(ctx, "XXX")
		assert.True(t, errors.Is(err, models.ErrNotFound))

		err = repos.Competitor.Create(ctx, repos.NewCompetitor(8, "Montreal Canadiens", "MTL"))
		assert.True(t, errors.Is(err, models.ErrDuplicateKey))
	})
}

func TestUpdateRatingsIsAtomic(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()
		registerThree(t, repos)

		tor, err := repos.Competitor.GetByID(ctx, 10)
		require.NoError(t, err)
		tor.Rating = rating.Rating{Mean: 27.5, Uncertainty: 8.0}
		ghost := models.NewCompetitor(99, "Ghost", "GHO")

		err = repos.Competitor.UpdateRatings(ctx, tor, ghost)
		require.True(t, errors.Is(err, models.ErrNotFound))

		stored, err := repos.Competitor.GetByID(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, rating.DefaultMean, stored.Rating.Mean)

		require.NoError(t, repos.Competitor.UpdateRatings(ctx, tor))
		stored, err = repos.Competitor.GetByID(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 27.5, stored.Rating.Mean)
		assert.Equal(t, 8.0, stored.Rating.Uncertainty)
	})
}

func TestPairwiseUpdate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()
		registerThree(t, repos)

		ab, err := repos.Pairwise.Get(ctx, 10, 8)
		require.NoError(t, err)
		ba, err := repos.Pairwise.Get(ctx, 8, 10)
		require.NoError(t, err)

		ab.Record(models.OutcomeWin)
		ba.Record(models.OutcomeLoss)
		require.NoError(t, repos.Pairwise.Update(ctx, ab, ba))

		ab, err = repos.Pairwise.Get(ctx, 10, 8)
		require.NoError(t, err)
		assert.Equal(t, 1, ab.TotalGames)
		assert.Equal(t, 1.0, ab.Estimate())

		ba, err = repos.Pairwise.Get(ctx, 8, 10)
		require.NoError(t, err)
		assert.Equal(t, 0.0, ba.Estimate())

		err = repos.Pairwise.Update(ctx, models.NewPairwiseRecord(99, 10))
		assert.True(t, errors.Is(err, models.ErrNotFound))
	})
}

func TestWindowRoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()
		registerThree(t, repos)

		w, err := repos.Window.Get(ctx, 6)
		require.NoError(t, err)
		for i := 0; i < 12; i++ {
			if i%3 == 0 {
				w.Push(models.OutcomeLoss)
			} else {
				w.Push(models.OutcomeWin)
			}
		}
		w.Push(models.OutcomeDraw)
		require.NoError(t, repos.Window.Update(ctx, w))

		stored, err := repos.Window.Get(ctx, 6)
		require.NoError(t, err)
		assert.Equal(t, w.Outcomes, stored.Outcomes)
		assert.Equal(t, w.Wins, stored.Wins)
		assert.Equal(t, w.Losses, stored.Losses)
		require.NoError(t, stored.Validate())
	})
}

func TestWindowUpdateRejectsBrokenInvariant(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repos *Repositories) {
		registerThree(t, repos)
		broken := &models.RollingWindow{ID: 6, Capacity: 1, Wins: 2, Outcomes: []models.Outcome{models.OutcomeWin, models.OutcomeWin}}
		err := repos.Window.Update(context.Background(), broken)
		assert.True(t, errors.Is(err, models.ErrInvariantViolation))
	})
}

func TestGameLedger(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()
		seen, err := repos.Games.IsProcessed(ctx, 2022020001)
		require.NoError(t, err)
		assert.False(t, seen)

		require.NoError(t, repos.Games.MarkProcessed(ctx, 2022020001))
		require.NoError(t, repos.Games.MarkProcessed(ctx, 2022020001))

		seen, err = repos.Games.IsProcessed(ctx, 2022020001)
		require.NoError(t, err)
		assert.True(t, seen)
	})
}

func TestApplyWritesWholeGame(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()
		registerThree(t, repos)

		tor, err := repos.Competitor.GetByID(ctx, 10)
		require.NoError(t, err)
		tor.Rating.Mean = 27
		rec, err := repos.Pairwise.Get(ctx, 10, 8)
		require.NoError(t, err)
		rec.Record(models.OutcomeWin)
		w, err := repos.Window.Get(ctx, 10)
		require.NoError(t, err)
		w.Push(models.OutcomeWin)

		batch := &Batch{GameID: 2022020001}
		batch.AddCompetitors(tor)
		batch.AddPairwise(rec)
		batch.AddWindows(w)
		require.NoError(t, repos.Apply(ctx, batch))

		tor, err = repos.Competitor.GetByID(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 27.0, tor.Rating.Mean)
		rec, err = repos.Pairwise.Get(ctx, 10, 8)
		require.NoError(t, err)
		assert.Equal(t, 1, rec.Wins)
		w, err = repos.Window.Get(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, w.Wins)

		seen, err := repos.Games.IsProcessed(ctx, 2022020001)
		require.NoError(t, err)
		assert.True(t, seen)
	})
}

func TestApplyIsAllOrNothing(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()
		registerThree(t, repos)

		tor, err := repos.Competitor.GetByID(ctx, 10)
		require.NoError(t, err)
		tor.Rating.Mean = 27
		rec, err := repos.Pairwise.Get(ctx, 10, 8)
		require.NoError(t, err)
		rec.Record(models.OutcomeWin)

		batch := &Batch{GameID: 2022020001}
		batch.AddCompetitors(tor)
		batch.AddPairwise(rec)
		batch.AddWindows(models.NewRollingWindow(99, models.DefaultWindowCapacity))

		err = repos.Apply(ctx, batch)
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrNotFound))

		tor, err = repos.Competitor.GetByID(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, rating.DefaultMean, tor.Rating.Mean)
		rec, err = repos.Pairwise.Get(ctx, 10, 8)
		require.NoError(t, err)
		assert.Equal(t, 0, rec.TotalGames)

		seen, err := repos.Games.IsProcessed(ctx, 2022020001)
		require.NoError(t, err)
		assert.False(t, seen)
	})
}

func TestApplyRejectsBrokenWindow(t *testing.T) {
	repos := NewMemoryRepositories()
	registerThree(t, repos)

	w, err := repos.Window.Get(context.Background(), 10)
	require.NoError(t, err)
	w.Outcomes = append(w.Outcomes, models.OutcomeWin)

	err = repos.Apply(context.Background(), &Batch{GameID: 1, Windows: []*models.RollingWindow{w}})
	assert.True(t, errors.Is(err, models.ErrInvariantViolation))
}

func TestReset(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repos *Repositories) {
		ctx := context.Background()
		registerThree(t, repos)

		tor, err := repos.Competitor.GetByID(ctx, 10)
		require.NoError(t, err)
		tor.Rating.Mean = 40
		require.NoError(t, repos.Competitor.UpdateRatings(ctx, tor))

		rec, err := repos.Pairwise.Get(ctx, 10, 8)
		require.NoError(t, err)
		rec.Record(models.OutcomeWin)
		require.NoError(t, repos.Pairwise.Update(ctx, rec))

		w, err := repos.Window.Get(ctx, 10)
		require.NoError(t, err)
		w.Push(models.OutcomeWin)
		require.NoError(t, repos.Window.Update(ctx, w))
		require.NoError(t, repos.Games.MarkProcessed(ctx, 1))

		require.NoError(t, repos.Reset(ctx))

		tor, err = repos.Competitor.GetByID(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, rating.DefaultMean, tor.Rating.Mean)

		rec, err = repos.Pairwise.Get(ctx, 10, 8)
		require.NoError(t, err)
		assert.Equal(t, 0, rec.TotalGames)

		w, err = repos.Window.Get(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 0, w.Len())

		seen, err := repos.Games.IsProcessed(ctx, 1)
		require.NoError(t, err)
		assert.False(t, seen)

		require.NoError(t, repos.Ping(ctx))
	})
}

func TestWithPriorAppliesToRegistration(t *testing.T) {
	repos := NewMemoryRepositories().WithPrior(Prior{
		Rating:         rating.Rating{Mean: 30, Uncertainty: 5},
		WindowCapacity: 5,
	})
	ctx := context.Background()
	require.NoError(t, repos.Register(ctx, repos.NewCompetitor(1, "One", "ONE")))

	c, err := repos.Competitor.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 30.0, c.Rating.Mean)

	w, err := repos.Window.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, w.Capacity)
}

func TestMemoryReturnsCopies(t *testing.T) {
	repos := NewMemoryRepositories()
	ctx := context.Background()
	registerThree(t, repos)

	c, err := repos.Competitor.GetByID(ctx, 10)
	require.NoError(t, err)
	c.Rating.Mean = 99

	stored, err := repos.Competitor.GetByID(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, rating.DefaultMean, stored.Rating.Mean)
}
