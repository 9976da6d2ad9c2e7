package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/matchup-engine/internal/engine"
	"github.com/yourusername/matchup-engine/internal/health"
	"github.com/yourusername/matchup-engine/internal/models"
	"github.com/yourusername/matchup-engine/internal/rating"
	"github.com/yourusername/matchup-engine/internal/repository"
	"github.com/yourusername/matchup-engine/internal/service"
)

type stubSync struct {
	summary *service.SyncSummary
}

func (s stubSync) LastSummary() (service.SyncSummary, bool) {
	if s.summary == nil {
		return service.SyncSummary{}, false
	}
	return *s.summary, true
}

func setupServer(t *testing.T, opts ...Option) (*Server, *engine.Orchestrator) {
	t.Helper()
	ctx := context.Background()
	repos := repository.NewMemoryRepositories()
	for _, c := range []struct {
		id     models.CompetitorID
		name   string
		abbrev string
	}{
		{1, "Alpha", "AAA"},
		{2, "Bravo", "BBB"},
		{3, "Charlie", "CCC"},
	} {
		require.NoError(t, repos.Register(ctx, repos.NewCompetitor(c.id, c.name, c.abbrev)))
	}

	orch, err := engine.New(engine.DefaultConfig(), repos, nil)
	require.NoError(t, err)
	_, err = orch.ProcessGame(ctx, models.Game{
		ID: 1, StartTime: time.Date(2022, 10, 7, 23, 0, 0, 0, time.UTC),
		AwayID: 1, HomeID: 2, AwayScore: 5, HomeScore: 2,
		GameType: models.GameTypeRegularSeason,
	})
	require.NoError(t, err)

	srv, err := NewServer(Config{Port: 8080, MetricsEnabled: true}, orch, repos, nil, opts...)
	require.NoError(t, err)
	return srv, orch
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestNewServerRequiresDependencies(t *testing.T) {
	_, err := NewServer(Config{}, nil, nil, nil)
	require.Error(t, err)
}

func TestAccuracyEndpoint(t *testing.T) {
	srv, orch := setupServer(t)

	rec := get(t, srv, "/api/accuracy")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var report engine.AccuracyReport
	decode(t, rec, &report)
	assert.Equal(t, orch.RunID().String(), report.RunID)
	assert.Equal(t, 1, report.Games)
	require.Len(t, report.Accuracy, 3)
	assert.Equal(t, 1, report.JointCells)
}

func TestRatingsEndpoint(t *testing.T) {
	srv, _ := setupServer(t)

	var body struct {
		Ratings []RatingEntry `json:"ratings"`
		Limit   int           `json:"limit"`
	}
	rec := get(t, srv, "/api/ratings")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	require.Len(t, body.Ratings, 3)
	assert.Equal(t, "AAA", body.Ratings[0].Abbrev)
	assert.Equal(t, 1, body.Ratings[0].Rank)
	assert.Equal(t, defaultRatingsLimit, body.Limit)

	rec = get(t, srv, "/api/ratings?limit=2&order=asc")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	require.Len(t, body.Ratings, 2)
	assert.NotEqual(t, "AAA", body.Ratings[0].Abbrev)
	assert.LessOrEqual(t, body.Ratings[0].MMR, body.Ratings[1].MMR)
}

func TestRankCompetitors(t *testing.T) {
	mk := func(id models.CompetitorID, abbrev string, mean float64) *models.Competitor {
		c := models.NewCompetitor(id, abbrev, abbrev)
		c.Rating = rating.Rating{Mean: mean, Uncertainty: 1}
		return c
	}
	competitors := []*models.Competitor{mk(1, "BBB", 20), mk(2, "AAA", 20), mk(3, "CCC", 30)}

	desc := RankCompetitors(competitors, false)
	assert.Equal(t, []string{"CCC", "AAA", "BBB"}, []string{desc[0].Abbrev, desc[1].Abbrev, desc[2].Abbrev})
	assert.Equal(t, 3, desc[2].Rank)

	asc := RankCompetitors(competitors, true)
	assert.Equal(t, []string{"AAA", "BBB", "CCC"}, []string{asc[0].Abbrev, asc[1].Abbrev, asc[2].Abbrev})
}

func TestCalibrationEndpoint(t *testing.T) {
	srv, _ := setupServer(t)

	rec := get(t, srv, "/api/calibration/last_n")
	require.Equal(t, http.StatusOK, rec.Code)
	var body CalibrationResponse
	decode(t, rec, &body)
	assert.Equal(t, 10, body.Resolution)
	assert.Equal(t, uint64(1), body.Samples)
	require.Len(t, body.PMF, 11)
	require.Len(t, body.CDF, 11)
	assert.Equal(t, 1.0, body.CDF[10])

	rec = get(t, srv, "/api/calibration/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJointEndpoint(t *testing.T) {
	srv, _ := setupServer(t)

	rec := get(t, srv, "/api/joint")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Dims  [3]int `json:"dims"`
		Total uint64 `json:"total"`
	}
	decode(t, rec, &body)
	assert.Equal(t, [3]int{1001, 1001, 11}, body.Dims)
	assert.Equal(t, uint64(1), body.Total)
}

func TestPredictEndpoint(t *testing.T) {
	srv, orch := setupServer(t)

	rec := get(t, srv, "/api/predict?away=aaa&home=CCC")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Away        string `json:"away"`
		Home        string `json:"home"`
		Predictions []struct {
			Model    string  `json:"model"`
			ExpAway  float64 `json:"exp_away"`
			ExpHome  float64 `json:"exp_home"`
			AwayOdds string  `json:"away_odds"`
		} `json:"predictions"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "AAA", body.Away)
	require.Len(t, body.Predictions, 3)
	assert.Equal(t, "skill", body.Predictions[0].Model)
	assert.Greater(t, body.Predictions[0].ExpAway, 0.5)
	assert.Equal(t, "last_n", body.Predictions[2].Model)

	assert.Equal(t, 1, orch.State().Games)
}

func TestPredictEndpointErrors(t *testing.T) {
	srv, _ := setupServer(t)

	tests := []struct {
		path   string
		status int
	}{
		{"/api/predict?away=AAA", http.StatusBadRequest},
		{"/api/predict?away=AAA&home=AAA", http.StatusBadRequest},
		{"/api/predict?away=AAA&home=ZZZ", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, srv, tt.path)
			assert.Equal(t, tt.status, rec.Code)
			var body map[string]string
			decode(t, rec, &body)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSyncEndpoint(t *testing.T) {
	srv, _ := setupServer(t)
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/api/sync").Code)

	srv, _ = setupServer(t, WithSyncStatus(stubSync{}))
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/api/sync").Code)

	srv, _ = setupServer(t, WithSyncStatus(stubSync{summary: &service.SyncSummary{Kind: service.KindDaily, Processed: 7}}))
	rec := get(t, srv, "/api/sync")
	require.Equal(t, http.StatusOK, rec.Code)
	var body service.SyncSummary
	decode(t, rec, &body)
	assert.Equal(t, 7, body.Processed)
}

func TestHealthAndMetricsMounted(t *testing.T) {
	checker := health.NewChecker(health.Config{ServiceName: "matchup-engine"})
	checker.SetReady(true)
	srv, _ := setupServer(t, WithHealth(checker))

	assert.Equal(t, http.StatusOK, get(t, srv, "/health").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/ready").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/metrics").Code)
}

func TestCORSHeaders(t *testing.T) {
	srv, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/accuracy", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
