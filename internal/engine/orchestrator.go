// Package engine drives the three prediction models over an ordered stream of games.
package engine

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/matchup-engine/internal/calibration"
	"github.com/yourusername/matchup-engine/internal/logger"
	"github.com/yourusername/matchup-engine/internal/metrics"
	"github.com/yourusername/matchup-engine/internal/models"
	"github.com/yourusername/matchup-engine/internal/predictor"
	"github.com/yourusername/matchup-engine/internal/repository"
)

// GameResult is what an orchestrator publishes for each processed game
type GameResult struct {
	RunID       uuid.UUID
	Game        models.Game
	Actual      models.Outcome
	Predictions [modelCount]models.Prediction
	Hits        [modelCount]bool
	Accuracy    []ModelAccuracy
	Duration    time.Duration
}

// GameObserver is notified after each processed game, in processing order
type GameObserver interface {
	OnGameProcessed(result GameResult)
}

// ObserverFunc adapts a function to GameObserver
type ObserverFunc func(result GameResult)

// OnGameProcessed calls f(result)
func (f ObserverFunc) OnGameProcessed(result GameResult) {
	f(result)
}

// Committer stores every record change of one game in a single atomic step
type Committer interface {
	Apply(ctx context.Context, batch *repository.Batch) error
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithObserver registers a per-game observer
func WithObserver(observer GameObserver) Option {
	return func(o *Orchestrator) {
		if observer != nil {
			o.observers = append(o.observers, observer)
		}
	}
}

// WithLogger sets the orchestrator logger
func WithLogger(log *logrus.Logger) Option {
	return func(o *Orchestrator) {
		o.log = logger.NewEngineLogger(log)
	}
}

// Orchestrator feeds games to the skill, historical and last-N models in that order
// and keeps session-scoped accuracy and joint calibration statistics.
type Orchestrator struct {
	mu        sync.RWMutex
	models    [modelCount]predictor.Predictor
	store     Committer
	runID     uuid.UUID
	state     *State
	joint     *calibration.JointHistogram
	observers []GameObserver
	log       *logger.EngineLogger
}

// NewOrchestrator creates an orchestrator over the given models. store writes each
// game's staged changes.
func NewOrchestrator(store Committer, skill, historical, lastN predictor.Predictor, opts ...Option) (*Orchestrator, error) {
	if store == nil {
		return nil, fmt.Errorf("a store is required")
	}
	if skill == nil || historical == nil || lastN == nil {
		return nil, fmt.Errorf("all three models are required")
	}

	o := &Orchestrator{
		models: [modelCount]predictor.Predictor{skill, historical, lastN},
		store:  store,
		log:    logger.NewEngineLogger(nil),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.resetSession()
	return o, nil
}

// New builds the three models over repos and wraps them in an orchestrator
func New(cfg Config, repos *repository.Repositories, log *logrus.Logger, opts ...Option) (*Orchestrator, error) {
	if repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	skill := predictor.NewSkillRatingModel(repos.Competitor, cfg.Rating,
		predictor.WithResolution(cfg.SkillResolution), predictor.WithLogger(log))
	historical := predictor.NewHistoricalMatchupModel(repos.Pairwise,
		predictor.WithResolution(cfg.HistoricalResolution), predictor.WithLogger(log))
	lastN := predictor.NewLastNGamesModel(repos.Window,
		predictor.WithResolution(cfg.WindowResolution), predictor.WithLogger(log))

	return NewOrchestrator(repos, skill, historical, lastN, append([]Option{WithLogger(log)}, opts...)...)
}

func (o *Orchestrator) resetSession() {
	o.runID = uuid.New()
	o.state = NewState()
	o.joint = calibration.NewJointHistogram(
		o.models[0].Resolution(),
		o.models[1].Resolution(),
		o.models[2].Resolution(),
	)
	for _, m := range o.models {
		m.ResetHistogram()
	}
}

// ResetSession clears counters and histograms and starts a new run id.
// Persisted model state is untouched.
func (o *Orchestrator) ResetSession() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resetSession()
}

// RunID returns the current session id
func (o *Orchestrator) RunID() uuid.UUID {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.runID
}

// ModelNames returns the model names in processing order
func (o *Orchestrator) ModelNames() []string {
	names := make([]string, 0, modelCount)
	for _, m := range o.models {
		names = append(names, m.Name())
	}
	return names
}

// ProcessGame runs one game through every model and returns their pre-game predictions.
// Every model's changes are stored together with the game's ledger entry, so a failure
// leaves stored state, histograms and counters as they were.
func (o *Orchestrator) ProcessGame(ctx context.Context, game models.Game) ([modelCount]models.Prediction, error) {
	start := time.Now()
	result, err := o.processGame(ctx, game)
	if err != nil {
		return [modelCount]models.Prediction{}, err
	}
	result.Duration = time.Since(start)

	for _, observer := range o.observers {
		observer.OnGameProcessed(result)
	}
	return result.Predictions, nil
}

func (o *Orchestrator) processGame(ctx context.Context, game models.Game) (GameResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	away, home := game.IDs()
	actual := game.Outcome()

	batch := &repository.Batch{GameID: game.ID}
	var (
		staged [modelCount]predictor.Staged
		preds  [modelCount]models.Prediction
	)
	for i, m := range o.models {
		st, err := m.Prepare(ctx, away, home, actual, batch)
		if err != nil {
			o.log.LogModelError(m.Name(), game.ID, err)
			metrics.RecordModelError(m.Name())
			return GameResult{}, fmt.Errorf("failed to process game %d: %w", game.ID, err)
		}
		staged[i] = st
		preds[i] = st.Prediction
	}

	if err := o.store.Apply(ctx, batch); err != nil {
		return GameResult{}, fmt.Errorf("failed to store game %d: %w", game.ID, err)
	}
	for _, st := range staged {
		st.Commit()
	}

	hits := o.state.UpdateState(game.ID, preds, actual)
	o.joint.Add(
		o.models[0].Bucket(preds[0].Favored()),
		o.models[1].Bucket(preds[1].Favored()),
		o.models[2].Bucket(preds[2].Favored()),
	)

	var favored [modelCount]float64
	for i, p := range preds {
		favored[i] = p.Favored()
	}
	o.log.LogGameProcessed(game.ID, away.String(), home.String(), actual.String(), favored, hits)

	return GameResult{
		RunID:       o.runID,
		Game:        game,
		Actual:      actual,
		Predictions: preds,
		Hits:        hits,
		Accuracy:    o.accuracy(),
	}, nil
}

// ProcessGames processes games in sequence order. It stops at the first error and
// checks ctx between games, never inside one. It returns the number of games processed.
func (o *Orchestrator) ProcessGames(ctx context.Context, games iter.Seq[models.Game]) (int, error) {
	start := time.Now()
	processed := 0
	for game := range games {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		if _, err := o.ProcessGame(ctx, game); err != nil {
			return processed, err
		}
		processed++
	}

	accuracy := make(map[string]float64, modelCount)
	for _, acc := range o.Accuracy() {
		accuracy[acc.Model] = acc.Ratio
	}
	o.log.LogRunSummary(o.RunID().String(), processed, accuracy, time.Since(start))
	return processed, nil
}

// Predict returns every model's current prediction without changing any state
func (o *Orchestrator) Predict(ctx context.Context, away, home models.CompetitorID) ([modelCount]models.Prediction, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var preds [modelCount]models.Prediction
	for i, m := range o.models {
		pred, err := m.Predict(ctx, away, home)
		if err != nil {
			return preds, err
		}
		preds[i] = pred
	}
	return preds, nil
}

// ModelAccuracy is one model's running accuracy
type ModelAccuracy struct {
	Model   string  `json:"model"`
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
	Ratio   float64 `json:"ratio"`
}

// Accuracy returns per-model accuracy in processing order
func (o *Orchestrator) Accuracy() []ModelAccuracy {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.accuracy()
}

func (o *Orchestrator) accuracy() []ModelAccuracy {
	out := make([]ModelAccuracy, 0, modelCount)
	for i, m := range o.models {
		out = append(out, ModelAccuracy{
			Model:   m.Name(),
			Correct: o.state.Correct[i],
			Total:   o.state.Games,
			Ratio:   o.state.Ratio(i),
		})
	}
	return out
}

// State returns a snapshot of the session counters
func (o *Orchestrator) State() *State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state.Clone()
}

// Calibration returns a snapshot of the named model's histogram
func (o *Orchestrator) Calibration(model string) (*calibration.Histogram, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	for _, m := range o.models {
		if m.Name() == model {
			return m.Histogram(), nil
		}
	}
	return nil, fmt.Errorf("model %q: %w", model, models.ErrNotFound)
}

// Joint returns a snapshot of the joint histogram
func (o *Orchestrator) Joint() *calibration.JointHistogram {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.joint.Clone()
}
