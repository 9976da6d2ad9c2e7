// Package predictor implements the three incremental match models behind one contract.
package predictor

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/matchup-engine/internal/calibration"
	"github.com/yourusername/matchup-engine/internal/logger"
	"github.com/yourusername/matchup-engine/internal/models"
	"github.com/yourusername/matchup-engine/internal/repository"
)

// Model names
const (
	SkillModelName      = "skill"
	HistoricalModelName = "historical"
	LastNModelName      = "last_n"
)

// Predictor is the contract shared by every model
type Predictor interface {
	Name() string
	// Predict reads current state without changing it
	Predict(ctx context.Context, away, home models.CompetitorID) (models.Prediction, error)
	// Update applies an observed outcome, given from the away side's viewpoint
	Update(ctx context.Context, away, home models.CompetitorID, outcome models.Outcome) error
	// PredictAndUpdate predicts from the pre-game state, then applies the outcome.
	// Either both sides' records advance or neither does.
	PredictAndUpdate(ctx context.Context, away, home models.CompetitorID, outcome models.Outcome) (models.Prediction, error)
	// Prepare predicts from the pre-game state and stages the outcome's record changes in
	// batch. Nothing is stored and the histogram is untouched until the returned update is
	// committed.
	Prepare(ctx context.Context, away, home models.CompetitorID, outcome models.Outcome, batch *repository.Batch) (Staged, error)
	// Bucket maps a probability into this model's calibration bucket space
	Bucket(p float64) int
	Resolution() int
	// Histogram returns a snapshot of the calibration histogram
	Histogram() *calibration.Histogram
	// ResetHistogram clears the calibration samples
	ResetHistogram()
}

// Staged is one model's prepared update for a game
type Staged struct {
	Prediction models.Prediction
	commit     func()
}

// Commit records the update once its batch is stored
func (s Staged) Commit() {
	if s.commit != nil {
		s.commit()
	}
}

// Option configures a model
type Option func(*options)

type options struct {
	resolution int
	log        *logrus.Logger
}

// WithResolution overrides the model's calibration resolution M
func WithResolution(m int) Option {
	return func(o *options) {
		if m > 0 {
			o.resolution = m
		}
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(log *logrus.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

func buildOptions(defaultResolution int, opts []Option) options {
	o := options{resolution: defaultResolution}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// recordRules supplies the model-specific parts of a recordModel. T is the record
// type a model keeps per side of a match.
type recordRules[T any] struct {
	// load fetches the away-side and home-side records
	load func(ctx context.Context, away, home models.CompetitorID) (T, T, error)
	// save writes both records in one atomic step
	save func(ctx context.Context, away, home T) error
	// stage adds both records to a batch
	stage func(batch *repository.Batch, away, home T)
	// expect derives both sides' expectations
	expect func(away, home T) (float64, float64)
	// apply returns both records advanced by the outcome
	apply func(away, home T, outcome models.Outcome) (T, T)
	// stored runs after the new records are stored; optional
	stored func(away, home, newAway, newHome T)
}

// prepared is a computed but unstored update
type prepared[T any] struct {
	away, home       T
	newAway, newHome T
	pred             models.Prediction
	outcome          models.Outcome
}

// recordModel runs the shared predict, update and calibration bookkeeping for one model
type recordModel[T any] struct {
	name  string
	rules recordRules[T]
	log   *logger.EngineLogger

	mu   sync.Mutex
	hist *calibration.Histogram
}

func newRecordModel[T any](name string, rules recordRules[T], o options) *recordModel[T] {
	return &recordModel[T]{
		name:  name,
		rules: rules,
		log:   logger.NewEngineLogger(o.log),
		hist:  calibration.NewHistogram(o.resolution),
	}
}

// Name returns the model name
func (m *recordModel[T]) Name() string {
	return m.name
}

// Predict reads current state without changing it
func (m *recordModel[T]) Predict(ctx context.Context, away, home models.CompetitorID) (models.Prediction, error) {
	a, h, err := m.rules.load(ctx, away, home)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("%s: %w", m.name, err)
	}
	return models.PredictionFromExpectations(m.rules.expect(a, h)), nil
}

// Update applies an observed outcome
func (m *recordModel[T]) Update(ctx context.Context, away, home models.CompetitorID, outcome models.Outcome) error {
	_, err := m.PredictAndUpdate(ctx, away, home, outcome)
	return err
}

// PredictAndUpdate predicts from the pre-game state, then applies the outcome
func (m *recordModel[T]) PredictAndUpdate(ctx context.Context, away, home models.CompetitorID, outcome models.Outcome) (models.Prediction, error) {
	_, _, pred, err := m.predictAndUpdate(ctx, away, home, outcome)
	return pred, err
}

func (m *recordModel[T]) predictAndUpdate(ctx context.Context, away, home models.CompetitorID, outcome models.Outcome) (T, T, models.Prediction, error) {
	var zero T

	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.prepare(ctx, away, home, outcome)
	if err != nil {
		return zero, zero, models.Prediction{}, err
	}
	if err := m.rules.save(ctx, p.newAway, p.newHome); err != nil {
		return zero, zero, models.Prediction{}, fmt.Errorf("%s: %w", m.name, err)
	}

	m.commit(p)
	return p.newAway, p.newHome, p.pred, nil
}

// Prepare predicts and stages the update in batch without storing anything
func (m *recordModel[T]) Prepare(ctx context.Context, away, home models.CompetitorID, outcome models.Outcome, batch *repository.Batch) (Staged, error) {
	p, err := m.prepare(ctx, away, home, outcome)
	if err != nil {
		return Staged{}, err
	}
	m.rules.stage(batch, p.newAway, p.newHome)

	return Staged{
		Prediction: p.pred,
		commit: func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.commit(p)
		},
	}, nil
}

func (m *recordModel[T]) prepare(ctx context.Context, away, home models.CompetitorID, outcome models.Outcome) (prepared[T], error) {
	if away == home {
		return prepared[T]{}, fmt.Errorf("%s: competitor %s cannot play itself: %w", m.name, away, models.ErrInvalidID)
	}

	a, h, err := m.rules.load(ctx, away, home)
	if err != nil {
		return prepared[T]{}, fmt.Errorf("%s: %w", m.name, err)
	}

	newA, newH := m.rules.apply(a, h, outcome)
	return prepared[T]{
		away:    a,
		home:    h,
		newAway: newA,
		newHome: newH,
		pred:    models.PredictionFromExpectations(m.rules.expect(a, h)),
		outcome: outcome,
	}, nil
}

// commit adds the calibration sample of a stored update. Callers hold m.mu.
func (m *recordModel[T]) commit(p prepared[T]) {
	m.hist.Add(p.pred.WinnerExpectation(p.outcome))
	if m.rules.stored != nil {
		m.rules.stored(p.away, p.home, p.newAway, p.newHome)
	}
}

// Bucket maps a probability into this model's bucket space
func (m *recordModel[T]) Bucket(p float64) int {
	return calibration.BucketFor(p, m.hist.Resolution())
}

// Resolution returns M
func (m *recordModel[T]) Resolution() int {
	return m.hist.Resolution()
}

// Histogram returns a snapshot of the calibration histogram
func (m *recordModel[T]) Histogram() *calibration.Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hist.Clone()
}

// ResetHistogram clears the calibration samples
func (m *recordModel[T]) ResetHistogram() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hist.Reset()
}
