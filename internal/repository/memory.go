package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yourusername/matchup-engine/internal/models"
)

type pairKey struct {
	from, to models.CompetitorID
}

// memoryStore is the shared state behind the in-memory repositories.
// Records are copied on the way in and out.
type memoryStore struct {
	mu          sync.RWMutex
	competitors map[models.CompetitorID]*models.Competitor
	pairs       map[pairKey]*models.PairwiseRecord
	windows     map[models.CompetitorID]*models.RollingWindow
	games       map[int64]struct{}
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		competitors: make(map[models.CompetitorID]*models.Competitor),
		pairs:       make(map[pairKey]*models.PairwiseRecord),
		windows:     make(map[models.CompetitorID]*models.RollingWindow),
		games:       make(map[int64]struct{}),
	}
}

func (s *memoryStore) Ping(context.Context) error { return nil }

func (s *memoryStore) Close() error { return nil }

func (s *memoryStore) Reset(_ context.Context, prior Prior) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, c := range s.competitors {
		c.Rating = prior.Rating
		c.UpdatedAt = now
	}
	for key := range s.pairs {
		s.pairs[key] = models.NewPairwiseRecord(key.from, key.to)
	}
	for id := range s.windows {
		s.windows[id] = models.NewRollingWindow(id, prior.WindowCapacity)
	}
	s.games = make(map[int64]struct{})
	return nil
}

func (s *memoryStore) Apply(_ context.Context, batch *Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.apply(batch); err != nil {
		return err
	}
	if batch.GameID != 0 {
		s.games[batch.GameID] = struct{}{}
	}
	return nil
}

// apply checks every key before writing anything. Callers hold s.mu.
func (s *memoryStore) apply(batch *Batch) error {
	for _, c := range batch.Competitors {
		if _, ok := s.competitors[c.ID]; !ok {
			return fmt.Errorf("competitor %s: %w", c.ID, models.ErrNotFound)
		}
	}
	for _, rec := range batch.Pairwise {
		if _, ok := s.pairs[pairKey{rec.FromID, rec.ToID}]; !ok {
			return fmt.Errorf("pairwise %s->%s: %w", rec.FromID, rec.ToID, models.ErrNotFound)
		}
	}
	for _, w := range batch.Windows {
		if _, ok := s.windows[w.ID]; !ok {
			return fmt.Errorf("window %s: %w", w.ID, models.ErrNotFound)
		}
	}

	now := time.Now().UTC()
	for _, c := range batch.Competitors {
		stored := s.competitors[c.ID]
		stored.Rating = c.Rating
		stored.UpdatedAt = now
	}
	for _, rec := range batch.Pairwise {
		s.pairs[pairKey{rec.FromID, rec.ToID}] = rec.Clone()
	}
	for _, w := range batch.Windows {
		s.windows[w.ID] = w.Clone()
	}
	return nil
}

// MemoryCompetitorRepository implements CompetitorRepository in memory
type MemoryCompetitorRepository struct {
	store *memoryStore
}

// Create inserts a new competitor
func (r *MemoryCompetitorRepository) Create(_ context.Context, competitor *models.Competitor) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.competitors[competitor.ID]; ok {
		return fmt.Errorf("competitor %s: %w", competitor.ID, models.ErrDuplicateKey)
	}
	for _, existing := range r.store.competitors {
		if existing.Abbrev == competitor.Abbrev {
			return fmt.Errorf("competitor abbrev %s: %w", competitor.Abbrev, models.ErrDuplicateKey)
		}
	}

	now := time.Now().UTC()
	stored := competitor.Clone()
	stored.CreatedAt, stored.UpdatedAt = now, now
	r.store.competitors[competitor.ID] = stored
	return nil
}

// GetByID retrieves a competitor by ID
func (r *MemoryCompetitorRepository) GetByID(_ context.Context, id models.CompetitorID) (*models.Competitor, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.store.competitors[id]
	if !ok {
		return nil, fmt.Errorf("competitor %s: %w", id, models.ErrNotFound)
	}
	return c.Clone(), nil
}

// GetByAbbrev retrieves a competitor by its short code
func (r *MemoryCompetitorRepository) GetByAbbrev(_ context.Context, abbrev string) (*models.Competitor, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, c := range r.store.competitors {
		if c.Abbrev == abbrev {
			return c.Clone(), nil
		}
	}
	return nil, fmt.Errorf("competitor %s: %w", abbrev, models.ErrNotFound)
}

// List returns all competitors ordered by ID
func (r *MemoryCompetitorRepository) List(_ context.Context) ([]*models.Competitor, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*models.Competitor, 0, len(r.store.competitors))
	for _, c := range r.store.competitors {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateRatings writes all ratings or none
func (r *MemoryCompetitorRepository) UpdateRatings(_ context.Context, competitors ...*models.Competitor) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.apply(&Batch{Competitors: competitors})
}

// MemoryPairwiseRepository implements PairwiseRepository in memory
type MemoryPairwiseRepository struct {
	store *memoryStore
}

// Create inserts a new head-to-head record
func (r *MemoryPairwiseRepository) Create(_ context.Context, record *models.PairwiseRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := pairKey{record.FromID, record.ToID}
	if _, ok := r.store.pairs[key]; ok {
		return fmt.Errorf("pairwise %s->%s: %w", record.FromID, record.ToID, models.ErrDuplicateKey)
	}
	r.store.pairs[key] = record.Clone()
	return nil
}

// Get retrieves the directional record of from against to
func (r *MemoryPairwiseRepository) Get(_ context.Context, from, to models.CompetitorID) (*models.PairwiseRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rec, ok := r.store.pairs[pairKey{from, to}]
	if !ok {
		return nil, fmt.Errorf("pairwise %s->%s: %w", from, to, models.ErrNotFound)
	}
	return rec.Clone(), nil
}

// Update writes all records or none
func (r *MemoryPairwiseRepository) Update(_ context.Context, records ...*models.PairwiseRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.apply(&Batch{Pairwise: records})
}

// MemoryWindowRepository implements WindowRepository in memory
type MemoryWindowRepository struct {
	store *memoryStore
}

// Create inserts a new rolling window
func (r *MemoryWindowRepository) Create(_ context.Context, window *models.RollingWindow) error {
	if err := window.Validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.windows[window.ID]; ok {
		return fmt.Errorf("window %s: %w", window.ID, models.ErrDuplicateKey)
	}
	r.store.windows[window.ID] = window.Clone()
	return nil
}

// Get retrieves a competitor's rolling window
func (r *MemoryWindowRepository) Get(_ context.Context, id models.CompetitorID) (*models.RollingWindow, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	w, ok := r.store.windows[id]
	if !ok {
		return nil, fmt.Errorf("window %s: %w", id, models.ErrNotFound)
	}
	return w.Clone(), nil
}

// Update writes all windows or none
func (r *MemoryWindowRepository) Update(_ context.Context, windows ...*models.RollingWindow) error {
	batch := &Batch{Windows: windows}
	if err := batch.validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.apply(batch)
}

// MemoryGameLedger implements GameLedger in memory
type MemoryGameLedger struct {
	store *memoryStore
}

// IsProcessed reports whether the game was already applied
func (l *MemoryGameLedger) IsProcessed(_ context.Context, gameID int64) (bool, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()
	_, ok := l.store.games[gameID]
	return ok, nil
}

// MarkProcessed records the game as applied
func (l *MemoryGameLedger) MarkProcessed(_ context.Context, gameID int64) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	l.store.games[gameID] = struct{}{}
	return nil
}
