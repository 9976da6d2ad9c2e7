package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/matchup-engine/internal/config"
	"github.com/yourusername/matchup-engine/internal/database"
	"github.com/yourusername/matchup-engine/internal/datasource"
	"github.com/yourusername/matchup-engine/internal/engine"
	"github.com/yourusername/matchup-engine/internal/repository"
)

// scoreboardDays maps a date to its final games as away/home/score tuples
var scoreboardDays = map[string][][4]any{
	"2022-10-07": {{"TOR", "MTL", 4, 1}, {"BOS", "PIT", 2, 3}},
	"2022-10-08": {{"MTL", "BOS", 2, 2}, {"PIT", "TOR", 1, 5}},
	"2022-10-09": {{"TOR", "BOS", 3, 2}, {"MTL", "PIT", 0, 4}},
	"2022-10-10": {},
}

var scoreboardTeams = map[string]int{"TOR": 10, "MTL": 8, "BOS": 6, "PIT": 5}

func scoreboardServer(t *testing.T) *httptest.Server {
	t.Helper()
	var gameID int64 = 2022020000
	bodies := make(map[string]string, len(scoreboardDays))
	for _, date := range []string{"2022-10-07", "2022-10-08", "2022-10-09", "2022-10-10"} {
		var games []string
		for i, g := range scoreboardDays[date] {
			gameID++
			games = append(games, fmt.Sprintf(
				`{"id": %d, "gameType": 2, "gameState": "OFF", "startTimeUTC": "%sT23:%02d:00Z",
				  "awayTeam": {"id": %d, "abbrev": %q, "score": %d},
				  "homeTeam": {"id": %d, "abbrev": %q, "score": %d}}`,
				gameID, date, i, scoreboardTeams[g[0].(string)], g[0], g[2],
				scoreboardTeams[g[1].(string)], g[1], g[3]))
		}
		bodies[date] = `{"games": [` + strings.Join(games, ",") + `]}`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[strings.TrimPrefix(r.URL.Path, "/v1/score/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func replayPipeline(t *testing.T, srv *httptest.Server, repos *repository.Repositories) (*engine.Exporter, SyncSummary, *engine.Orchestrator) {
	t.Helper()
	source, err := datasource.NewGameSource(config.DataSourceConfig{
		Name:              "scoreboard",
		ScoresURL:         srv.URL + "/v1/score",
		TeamsURL:          srv.URL + "/stats/team",
		TimeoutSeconds:    5,
		RateLimit:         1000,
		RegularSeasonOnly: true,
	}, nil)
	require.NoError(t, err)

	exporter := engine.NewExporter(false)
	orch, err := engine.New(engine.DefaultConfig(), repos, nil, engine.WithObserver(exporter))
	require.NoError(t, err)
	svc, err := NewSyncService(source, repos, orch, SeasonWindow{StartMonth: 10, EndMonth: 4}, nil)
	require.NoError(t, err)

	summary, err := svc.Replay(context.Background(), day(7), day(10))
	require.NoError(t, err)
	return exporter, summary, orch
}

func TestReplayPipelineAgreesAcrossBackends(t *testing.T) {
	srv := scoreboardServer(t)

	sqliteRepos, err := repository.NewSQLiteRepositories(database.SetupTestSQLite(t))
	require.NoError(t, err)
	sqliteRows, summary, orch := replayPipeline(t, srv, sqliteRepos)

	assert.Equal(t, 4, summary.Days)
	assert.Equal(t, 6, summary.Processed)
	assert.Equal(t, 4, summary.Registered)
	assert.Equal(t, 6, orch.State().Games)

	memoryRows, _, _ := replayPipeline(t, srv, repository.NewMemoryRepositories())
	require.Len(t, sqliteRows.Rows(), 6)
	assert.Equal(t, memoryRows.Rows(), sqliteRows.Rows())

	tor, err := sqliteRepos.Competitor.GetByAbbrev(context.Background(), "TOR")
	require.NoError(t, err)
	assert.Greater(t, tor.MMR(), 1000)

	rec, err := sqliteRepos.Pairwise.Get(context.Background(), 10, 6)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Wins)
}

func TestReplayPipelineIsIdempotentOnStoredState(t *testing.T) {
	srv := scoreboardServer(t)
	repos, err := repository.NewSQLiteRepositories(database.SetupTestSQLite(t))
	require.NoError(t, err)

	_, first, _ := replayPipeline(t, srv, repos)
	require.Equal(t, 6, first.Processed)

	_, second, orch := replayPipeline(t, srv, repos)
	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, 6, second.Duplicates)
	assert.Equal(t, 0, orch.State().Games)
}
