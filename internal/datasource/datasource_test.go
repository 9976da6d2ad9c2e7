package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/matchup-engine/internal/config"
	"github.com/yourusername/matchup-engine/internal/models"
)

const scoresFixture = `{
  "currentDate": "2022-10-12",
  "games": [
    {"id": 2022020012, "gameType": 2, "gameState": "OFF", "startTimeUTC": "2022-10-13T02:00:00Z",
     "awayTeam": {"id": 10, "abbrev": "TOR", "name": {"default": "Maple Leafs"}, "score": 3},
     "homeTeam": {"id": 8, "abbrev": "MTL", "name": {"default": "Canadiens"}, "score": 4}},
    {"id": 2022020010, "gameType": 2, "gameState": "FINAL", "startTimeUTC": "2022-10-12T23:00:00Z",
     "awayTeam": {"id": 6, "abbrev": "BOS", "score": 5},
     "homeTeam": {"id": 5, "abbrev": "PIT", "score": 2}},
    {"id": 2022020011, "gameType": 2, "gameState": "LIVE", "startTimeUTC": "2022-10-12T23:30:00Z",
     "awayTeam": {"id": 1, "abbrev": "NJD", "score": 1},
     "homeTeam": {"id": 2, "abbrev": "NYI", "score": 0}},
    {"id": 2022010099, "gameType": 1, "gameState": "OFF", "startTimeUTC": "2022-10-12T23:00:00Z",
     "awayTeam": {"id": 3, "abbrev": "NYR", "score": 2},
     "homeTeam": {"id": 4, "abbrev": "PHI", "score": 1}},
    {"id": 2022020009, "gameType": 2, "gameState": "OFF", "startTimeUTC": "2022-10-12T23:00:00Z",
     "awayTeam": {"id": 7, "abbrev": "BUF", "score": 2},
     "homeTeam": {"id": 9, "abbrev": "OTT", "score": 2}}
  ]
}`

const teamsFixture = `{"data": [
  {"id": 10, "fullName": "Toronto Maple Leafs", "triCode": "TOR", "franchiseId": 5},
  {"id": 8, "fullName": "Montréal Canadiens", "triCode": "MTL", "franchiseId": 1},
  {"id": 6, "fullName": "Boston Bruins", "triCode": "BOS", "franchiseId": 6}
], "total": 3}`

func testConfig(baseURL string) config.DataSourceConfig {
	return config.DataSourceConfig{
		Name:              "scoreboard",
		ScoresURL:         baseURL + "/v1/score/",
		TeamsURL:          baseURL + "/stats/team",
		TimeoutSeconds:    5,
		MaxRetries:        0,
		RateLimit:         1000,
		CacheTTLSeconds:   60,
		RegularSeasonOnly: true,
		SeasonStartMonth:  10,
		SeasonEndMonth:    4,
	}
}

func newTestServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/score/2022-10-12", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(scoresFixture))
	})
	mux.HandleFunc("/stats/team", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(teamsFixture))
	})
	mux.HandleFunc("/v1/score/2022-10-13", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestSource(t *testing.T, cfg config.DataSourceConfig) *ScoreboardSource {
	t.Helper()
	source, err := NewGameSource(cfg, nil)
	require.NoError(t, err)
	return source.(*ScoreboardSource)
}

func TestFetchGamesFiltersAndSorts(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	source := newTestSource(t, testConfig(srv.URL))

	games, err := source.FetchGames(context.Background(), time.Date(2022, 10, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, games, 3)

	ids := []int64{games[0].Game.ID, games[1].Game.ID, games[2].Game.ID}
	assert.Equal(t, []int64{2022020009, 2022020010, 2022020012}, ids)

	tor := games[2]
	assert.Equal(t, models.CompetitorID(10), tor.Game.AwayID)
	assert.Equal(t, models.CompetitorID(8), tor.Game.HomeID)
	assert.Equal(t, models.OutcomeLoss, tor.Game.Outcome())
	assert.Equal(t, "TOR", tor.Away.Abbrev)
	assert.Equal(t, "Maple Leafs", tor.Away.Name)

	assert.Equal(t, models.OutcomeDraw, games[0].Game.Outcome())
	assert.Equal(t, "BOS", games[1].Away.Name)
}

func TestFetchGamesIncludesPreseasonWhenConfigured(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	cfg := testConfig(srv.URL)
	cfg.RegularSeasonOnly = false
	source := newTestSource(t, cfg)

	games, err := source.FetchGames(context.Background(), time.Date(2022, 10, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, games, 4)
}

func TestFetchUsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	source := newTestSource(t, testConfig(srv.URL))
	ctx := context.Background()
	day := time.Date(2022, 10, 12, 0, 0, 0, 0, time.UTC)

	_, err := source.FetchGames(ctx, day)
	require.NoError(t, err)
	_, err = source.FetchGames(ctx, day)
	require.NoError(t, err)

	assert.Equal(t, int32(1), hits.Load())
	cacheHits, _ := source.cache.Stats()
	assert.Equal(t, uint64(1), cacheHits)
}

func TestFetchCompetitors(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	source := newTestSource(t, testConfig(srv.URL))

	teams, err := source.FetchCompetitors(context.Background())
	require.NoError(t, err)
	require.Len(t, teams, 3)
	assert.Equal(t, CompetitorData{ID: 6, Name: "Boston Bruins", Abbrev: "BOS"}, teams[0])
	assert.Equal(t, models.CompetitorID(10), teams[2].ID)
}

func TestFetchAuthFailure(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	source := newTestSource(t, testConfig(srv.URL))

	_, err := source.FetchGames(context.Background(), time.Date(2022, 10, 13, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)

	var dsErr DataSourceError
	require.True(t, errors.As(err, &dsErr))
	assert.Equal(t, ErrCodeAuthenticationFailed, dsErr.Code)
}

func TestFetchNotFound(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	source := newTestSource(t, testConfig(srv.URL))

	_, err := source.FetchGames(context.Background(), time.Date(2022, 11, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFetchInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"games": [`))
	}))
	t.Cleanup(srv.Close)
	cfg := testConfig(srv.URL)
	source := newTestSource(t, cfg)

	_, err := source.FetchGames(context.Background(), time.Date(2022, 10, 12, 0, 0, 0, 0, time.UTC))
	var dsErr DataSourceError
	require.True(t, errors.As(err, &dsErr))
	assert.Equal(t, ErrCodeInvalidData, dsErr.Code)
}

func TestCircuitBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 1000
	cfg.CircuitBreakerMax = 2
	client := NewRateLimitedHTTPClient(cfg, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := client.Get(ctx, srv.URL)
		require.Error(t, err)
	}
	assert.True(t, client.IsOpen())

	_, err := client.Get(ctx, srv.URL)
	assert.True(t, errors.Is(err, ErrCircuitOpen))
	assert.Equal(t, int32(2), hits.Load())

	client.ResetCircuit()
	assert.False(t, client.IsOpen())
}

func TestUnknownSource(t *testing.T) {
	_, err := NewGameSource(config.DataSourceConfig{Name: "espn"}, nil)
	require.Error(t, err)
}

func TestInSeason(t *testing.T) {
	tests := []struct {
		month time.Month
		want  bool
	}{
		{time.October, true},
		{time.December, true},
		{time.January, true},
		{time.April, true},
		{time.May, false},
		{time.August, false},
	}
	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, InSeason(time.Date(2023, tt.month, 15, 0, 0, 0, 0, time.UTC), 10, 4))
		})
	}
	assert.True(t, InSeason(time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC), 1, 6))
	assert.False(t, InSeason(time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC), 1, 6))
}

func TestSeasonDays(t *testing.T) {
	start := time.Date(2023, time.April, 29, 12, 0, 0, 0, time.UTC)
	end := time.Date(2023, time.May, 2, 0, 0, 0, 0, time.UTC)

	days := slices.Collect(SeasonDays(start, end, 10, 4))
	require.Len(t, days, 2)
	assert.Equal(t, "2023-04-29", days[0].Format("2006-01-02"))
	assert.Equal(t, "2023-04-30", days[1].Format("2006-01-02"))
}

func TestResponseCacheDisabled(t *testing.T) {
	rc := NewResponseCache(0)
	rc.Set("k", []byte("v"))
	_, ok := rc.Get("k")
	assert.False(t, ok)
}
