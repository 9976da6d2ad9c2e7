// Package api serves engine reports, ratings and live predictions over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/matchup-engine/internal/calibration"
	"github.com/yourusername/matchup-engine/internal/engine"
	"github.com/yourusername/matchup-engine/internal/health"
	"github.com/yourusername/matchup-engine/internal/metrics"
	"github.com/yourusername/matchup-engine/internal/models"
	"github.com/yourusername/matchup-engine/internal/repository"
	"github.com/yourusername/matchup-engine/internal/service"
)

const (
	defaultRatingsLimit = 50
	maxRatingsLimit     = 500
)

// SyncStatus exposes the most recent sync run
type SyncStatus interface {
	LastSummary() (service.SyncSummary, bool)
}

// Config holds the server settings
type Config struct {
	Port           int
	AllowedOrigins []string
	MetricsEnabled bool
	MetricsPath    string
}

// Server is the reporting HTTP server
type Server struct {
	config       Config
	orchestrator *engine.Orchestrator
	repos        *repository.Repositories
	health       *health.Checker
	feed         http.Handler
	sync         SyncStatus
	logger       *logrus.Entry
	httpServer   *http.Server
}

// Option configures a Server
type Option func(*Server)

// WithFeed mounts a websocket handler at /ws
func WithFeed(handler http.Handler) Option {
	return func(s *Server) { s.feed = handler }
}

// WithSyncStatus exposes the last sync summary at /api/sync
func WithSyncStatus(status SyncStatus) Option {
	return func(s *Server) { s.sync = status }
}

// WithHealth mounts the probe endpoints
func WithHealth(checker *health.Checker) Option {
	return func(s *Server) { s.health = checker }
}

// NewServer creates a new server
func NewServer(cfg Config, orchestrator *engine.Orchestrator, repos *repository.Repositories, log *logrus.Logger, opts ...Option) (*Server, error) {
	if orchestrator == nil || repos == nil {
		return nil, fmt.Errorf("orchestrator and repositories are required")
	}
	if log == nil {
		log = logrus.New()
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	s := &Server{
		config:       cfg,
		orchestrator: orchestrator,
		repos:        repos,
		logger:       log.WithField("component", "api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the routed, CORS-wrapped handler
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	if s.health != nil {
		s.health.Register(router)
	}
	if s.config.MetricsEnabled {
		router.Handle(s.config.MetricsPath, metrics.Handler()).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/accuracy", s.handleAccuracy).Methods(http.MethodGet)
	api.HandleFunc("/ratings", s.handleRatings).Methods(http.MethodGet)
	api.HandleFunc("/calibration/{model}", s.handleCalibration).Methods(http.MethodGet)
	api.HandleFunc("/joint", s.handleJoint).Methods(http.MethodGet)
	api.HandleFunc("/predict", s.handlePredict).Methods(http.MethodGet)
	api.HandleFunc("/sync", s.handleSync).Methods(http.MethodGet)

	if s.feed != nil {
		router.Handle("/ws", s.feed)
	}

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(router)
}

// Start serves until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         ":" + strconv.Itoa(s.config.Port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("port", s.config.Port).Info("API server starting")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server failed: %w", err)
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("API server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleAccuracy(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.orchestrator.Report())
}

// RatingEntry is one competitor in the ratings table
type RatingEntry struct {
	Rank        int     `json:"rank"`
	ID          int64   `json:"id"`
	Abbrev      string  `json:"abbrev"`
	Name        string  `json:"name"`
	MMR         int     `json:"mmr"`
	Mean        float64 `json:"mean"`
	Uncertainty float64 `json:"uncertainty"`
}

func (s *Server) handleRatings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 || limit > maxRatingsLimit {
		limit = defaultRatingsLimit
	}
	ascending := strings.EqualFold(query.Get("order"), "asc")

	competitors, err := s.repos.Competitor.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	entries := RankCompetitors(competitors, ascending)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ratings": entries,
		"limit":   limit,
	})
}

// RankCompetitors orders competitors by MMR, highest first unless ascending.
// Ties break on abbrev.
func RankCompetitors(competitors []*models.Competitor, ascending bool) []RatingEntry {
	entries := make([]RatingEntry, 0, len(competitors))
	for _, c := range competitors {
		entries = append(entries, RatingEntry{
			ID:          int64(c.ID),
			Abbrev:      c.Abbrev,
			Name:        c.Name,
			MMR:         c.MMR(),
			Mean:        c.Rating.Mean,
			Uncertainty: c.Rating.Uncertainty,
		})
	}

	slices.SortFunc(entries, func(a, b RatingEntry) int {
		if a.MMR != b.MMR {
			if ascending {
				return a.MMR - b.MMR
			}
			return b.MMR - a.MMR
		}
		return strings.Compare(a.Abbrev, b.Abbrev)
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// CalibrationResponse is a model's histogram with its distribution
type CalibrationResponse struct {
	Model      string   `json:"model"`
	Resolution int      `json:"resolution"`
	Samples    uint64   `json:"samples"`
	Counts     []uint64 `json:"counts"`
	calibration.Distribution
}

func (s *Server) handleCalibration(w http.ResponseWriter, r *http.Request) {
	model := mux.Vars(r)["model"]
	hist, err := s.orchestrator.Calibration(model)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	s.writeJSON(w, http.StatusOK, CalibrationResponse{
		Model:        model,
		Resolution:   hist.Resolution(),
		Samples:      hist.Total(),
		Counts:       hist.Counts(),
		Distribution: hist.Distribution(),
	})
}

func (s *Server) handleJoint(w http.ResponseWriter, r *http.Request) {
	joint := s.orchestrator.Joint()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"dims":  joint.Dims(),
		"total": joint.Total(),
		"cells": joint.Cells(),
	})
}

// PredictionResponse is one model's prediction with fair decimal odds
type PredictionResponse struct {
	Model string `json:"model"`
	models.Prediction
	AwayOdds decimal.Decimal `json:"away_odds"`
	HomeOdds decimal.Decimal `json:"home_odds"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	awayAbbrev, homeAbbrev := strings.ToUpper(query.Get("away")), strings.ToUpper(query.Get("home"))
	if awayAbbrev == "" || homeAbbrev == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("away and home are required"))
		return
	}
	if awayAbbrev == homeAbbrev {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("a competitor cannot play itself"))
		return
	}

	ctx := r.Context()
	away, err := s.repos.Competitor.GetByAbbrev(ctx, awayAbbrev)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	home, err := s.repos.Competitor.GetByAbbrev(ctx, homeAbbrev)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}

	preds, err := s.orchestrator.Predict(ctx, away.ID, home.ID)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}

	names := s.orchestrator.ModelNames()
	out := make([]PredictionResponse, 0, len(preds))
	for i, p := range preds {
		out = append(out, PredictionResponse{
			Model:      names[i],
			Prediction: p,
			AwayOdds:   models.FairOdds(p.ExpAway),
			HomeOdds:   models.FairOdds(p.ExpHome),
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"away":        away.Abbrev,
		"home":        home.Abbrev,
		"predictions": out,
	})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.sync == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("sync is not configured"))
		return
	}
	summary, ok := s.sync.LastSummary()
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("no sync has run yet"))
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeError(w, http.StatusInternalServerError, err)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed")
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Warn("Failed to encode response")
	}
}
