package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/matchup-engine/internal/config"
	"github.com/yourusername/matchup-engine/internal/metrics"
	"github.com/yourusername/matchup-engine/internal/models"
)

// Game states reported once a game is over
const (
	GameStateOff   = "OFF"
	GameStateFinal = "FINAL"
)

// ScoreboardSource implements GameSource for an NHL-style scoreboard API
type ScoreboardSource struct {
	name              string
	httpClient        *RateLimitedHTTPClient
	cache             *ResponseCache
	scoresURL         string
	teamsURL          string
	apiKey            string
	regularSeasonOnly bool
	logger            *logrus.Entry
}

// scoresResponse is the daily scores payload
type scoresResponse struct {
	Games []scoreboardGame `json:"games"`
}

type scoreboardGame struct {
	ID           int64          `json:"id"`
	GameType     int            `json:"gameType"`
	GameState    string         `json:"gameState"`
	StartTimeUTC time.Time      `json:"startTimeUTC"`
	AwayTeam     scoreboardTeam `json:"awayTeam"`
	HomeTeam     scoreboardTeam `json:"homeTeam"`
}

type scoreboardTeam struct {
	ID     int64             `json:"id"`
	Abbrev string            `json:"abbrev"`
	Name   map[string]string `json:"name"`
	Score  *int              `json:"score"`
}

// teamsResponse is the team list payload
type teamsResponse struct {
	Data []struct {
		ID       int64  `json:"id"`
		FullName string `json:"fullName"`
		TriCode  string `json:"triCode"`
	} `json:"data"`
}

// NewScoreboardSource creates a scoreboard client
func NewScoreboardSource(cfg config.DataSourceConfig, httpClient *RateLimitedHTTPClient, logger *logrus.Logger) *ScoreboardSource {
	if logger == nil {
		logger = logrus.New()
	}
	return &ScoreboardSource{
		name:              cfg.Name,
		httpClient:        httpClient,
		cache:             NewResponseCache(cfg.CacheTTL()),
		scoresURL:         strings.TrimRight(cfg.ScoresURL, "/"),
		teamsURL:          cfg.TeamsURL,
		apiKey:            cfg.APIKey,
		regularSeasonOnly: cfg.RegularSeasonOnly,
		logger:            logger.WithFields(logrus.Fields{"component": "datasource", "source": cfg.Name}),
	}
}

// NewGameSource creates the configured game source
func NewGameSource(cfg config.DataSourceConfig, logger *logrus.Logger) (GameSource, error) {
	switch cfg.Name {
	case "nhl", "scoreboard":
		client := NewRateLimitedHTTPClient(HTTPClientConfigFrom(cfg), logger)
		return NewScoreboardSource(cfg, client, logger), nil
	default:
		return nil, fmt.Errorf("unknown data source: %s", cfg.Name)
	}
}

// Name returns the name of the data source
func (s *ScoreboardSource) Name() string {
	return s.name
}

// FetchCompetitors retrieves the team list
func (s *ScoreboardSource) FetchCompetitors(ctx context.Context) ([]CompetitorData, error) {
	body, err := s.fetch(ctx, s.teamsURL)
	if err != nil {
		return nil, err
	}

	var resp teamsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, NewDataSourceError(s.name, ErrCodeInvalidData, "failed to parse teams", err)
	}

	teams := make([]CompetitorData, 0, len(resp.Data))
	for _, t := range resp.Data {
		if t.ID <= 0 || t.TriCode == "" {
			continue
		}
		teams = append(teams, CompetitorData{
			ID:     models.CompetitorID(t.ID),
			Name:   t.FullName,
			Abbrev: t.TriCode,
		})
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	return teams, nil
}

// FetchGames retrieves the finished games played on date
func (s *ScoreboardSource) FetchGames(ctx context.Context, date time.Time) ([]GameData, error) {
	url := fmt.Sprintf("%s/%s", s.scoresURL, date.Format("2006-01-02"))
	body, err := s.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	var resp scoresResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, NewDataSourceError(s.name, ErrCodeInvalidData, "failed to parse scores", err)
	}

	games := make([]GameData, 0, len(resp.Games))
	for _, g := range resp.Games {
		if !isFinal(g.GameState) {
			continue
		}
		if s.regularSeasonOnly && g.GameType != models.GameTypeRegularSeason {
			continue
		}
		if g.AwayTeam.Score == nil || g.HomeTeam.Score == nil {
			s.logger.WithField("game_id", g.ID).Warn("Final game without score, skipping")
			continue
		}
		games = append(games, GameData{
			Game: models.Game{
				ID:        g.ID,
				StartTime: g.StartTimeUTC.UTC(),
				AwayID:    models.CompetitorID(g.AwayTeam.ID),
				HomeID:    models.CompetitorID(g.HomeTeam.ID),
				AwayScore: *g.AwayTeam.Score,
				HomeScore: *g.HomeTeam.Score,
				GameType:  g.GameType,
			},
			Away: g.AwayTeam.competitor(),
			Home: g.HomeTeam.competitor(),
		})
	}

	sort.SliceStable(games, func(i, j int) bool {
		a, b := games[i].Game, games[j].Game
		if !a.StartTime.Equal(b.StartTime) {
			return a.StartTime.Before(b.StartTime)
		}
		return a.ID < b.ID
	})
	return games, nil
}

func (t scoreboardTeam) competitor() CompetitorData {
	name := t.Name["default"]
	if name == "" {
		name = t.Abbrev
	}
	return CompetitorData{ID: models.CompetitorID(t.ID), Name: name, Abbrev: t.Abbrev}
}

func isFinal(state string) bool {
	return state == GameStateOff || state == GameStateFinal
}

// fetch returns the response body for url, from cache when possible
func (s *ScoreboardSource) fetch(ctx context.Context, url string) ([]byte, error) {
	if body, ok := s.cache.Get(url); ok {
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewDataSourceError(s.name, ErrCodeNetworkError, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(ctx, req)
	if err != nil {
		metrics.RecordSourceRequest(s.name, "error")
		code := ErrCodeNetworkError
		if s.httpClient.IsOpen() {
			code = ErrCodeCircuitOpen
		}
		return nil, NewDataSourceError(s.name, code, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		metrics.RecordSourceRequest(s.name, "auth_failed")
		return nil, NewDataSourceError(s.name, ErrCodeAuthenticationFailed, "invalid API key", nil)
	case resp.StatusCode == http.StatusNotFound:
		metrics.RecordSourceRequest(s.name, "not_found")
		return nil, NewDataSourceError(s.name, ErrCodeNotFound, url, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		metrics.RecordSourceRequest(s.name, "rate_limited")
		return nil, NewDataSourceError(s.name, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode != http.StatusOK:
		metrics.RecordSourceRequest(s.name, "error")
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, NewDataSourceError(s.name, ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordSourceRequest(s.name, "error")
		return nil, NewDataSourceError(s.name, ErrCodeNetworkError, "failed to read response", err)
	}
	metrics.RecordSourceRequest(s.name, "ok")
	s.cache.Set(url, body)
	return body, nil
}
