package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yourusername/matchup-engine/internal/database"
	"github.com/yourusername/matchup-engine/internal/models"
)

// SQLiteCompetitorRepository implements CompetitorRepository for SQLite
type SQLiteCompetitorRepository struct {
	db *database.SQLiteDB
}

// NewSQLiteCompetitorRepository creates a new competitor repository
func NewSQLiteCompetitorRepository(db *database.SQLiteDB) CompetitorRepository {
	return &SQLiteCompetitorRepository{db: db}
}

// Create inserts a new competitor
func (r *SQLiteCompetitorRepository) Create(ctx context.Context, competitor *models.Competitor) error {
	query := `
		INSERT INTO competitors (id, name, abbrev, mean, uncertainty)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`

	res, err := r.db.Conn().ExecContext(ctx, query,
		int64(competitor.ID), competitor.Name, competitor.Abbrev,
		competitor.Rating.Mean, competitor.Rating.Uncertainty,
	)
	if err != nil {
		return fmt.Errorf("failed to create competitor: %w", err)
	}
	return duplicateIfUnchanged(res, fmt.Sprintf("competitor %s", competitor.ID))
}

// GetByID retrieves a competitor by ID
func (r *SQLiteCompetitorRepository) GetByID(ctx context.Context, id models.CompetitorID) (*models.Competitor, error) {
	query := `SELECT ` + competitorColumns + ` FROM competitors WHERE id = ?`
	return r.getOne(ctx, query, int64(id))
}

// GetByAbbrev retrieves a competitor by its short code
func (r *SQLiteCompetitorRepository) GetByAbbrev(ctx context.Context, abbrev string) (*models.Competitor, error) {
	query := `SELECT ` + competitorColumns + ` FROM competitors WHERE abbrev = ?`
	return r.getOne(ctx, query, abbrev)
}

func (r *SQLiteCompetitorRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.Competitor, error) {
	c, err := scanCompetitor(r.db.Conn().QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("competitor %v: %w", arg, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get competitor: %w", err)
	}
	return c, nil
}

// List returns all competitors ordered by ID
func (r *SQLiteCompetitorRepository) List(ctx context.Context) ([]*models.Competitor, error) {
	query := `SELECT ` + competitorColumns + ` FROM competitors ORDER BY id ASC`

	rows, err := r.db.Conn().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query competitors: %w", err)
	}
	defer rows.Close()

	var competitors []*models.Competitor
	for rows.Next() {
		c, err := scanCompetitor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan competitor: %w", err)
		}
		competitors = append(competitors, c)
	}

	return competitors, rows.Err()
}

// UpdateRatings writes all ratings in one transaction
func (r *SQLiteCompetitorRepository) UpdateRatings(ctx context.Context, competitors ...*models.Competitor) error {
	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		return sqliteUpdateCompetitors(ctx, tx, competitors)
	})
}

func sqliteUpdateCompetitors(ctx context.Context, tx *sql.Tx, competitors []*models.Competitor) error {
	query := `UPDATE competitors SET mean = ?, uncertainty = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	for _, c := range competitors {
		res, err := tx.ExecContext(ctx, query, c.Rating.Mean, c.Rating.Uncertainty, int64(c.ID))
		if err != nil {
			return fmt.Errorf("failed to update competitor %s: %w", c.ID, err)
		}
		if err := notFoundIfUnchanged(res, fmt.Sprintf("competitor %s", c.ID)); err != nil {
			return err
		}
	}
	return nil
}

// SQLitePairwiseRepository implements PairwiseRepository for SQLite
type SQLitePairwiseRepository struct {
	db *database.SQLiteDB
}

// NewSQLitePairwiseRepository creates a new head-to-head repository
func NewSQLitePairwiseRepository(db *database.SQLiteDB) PairwiseRepository {
	return &SQLitePairwiseRepository{db: db}
}

// Create inserts a new head-to-head record
func (r *SQLitePairwiseRepository) Create(ctx context.Context, record *models.PairwiseRecord) error {
	query := `
		INSERT INTO pairwise_records (from_id, to_id, total_games, wins, win_freq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`

	res, err := r.db.Conn().ExecContext(ctx, query,
		int64(record.FromID), int64(record.ToID), record.TotalGames, record.Wins, record.WinFreq,
	)
	if err != nil {
		return fmt.Errorf("failed to create pairwise record: %w", err)
	}
	return duplicateIfUnchanged(res, fmt.Sprintf("pairwise %s->%s", record.FromID, record.ToID))
}

// Get retrieves the directional record of from against to
func (r *SQLitePairwiseRepository) Get(ctx context.Context, from, to models.CompetitorID) (*models.PairwiseRecord, error) {
	query := `SELECT total_games, wins, win_freq FROM pairwise_records WHERE from_id = ? AND to_id = ?`

	rec := models.NewPairwiseRecord(from, to)
	err := r.db.Conn().QueryRowContext(ctx, query, int64(from), int64(to)).Scan(&rec.TotalGames, &rec.Wins, &rec.WinFreq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pairwise %s->%s: %w", from, to, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pairwise record: %w", err)
	}
	return rec, nil
}

// Update writes all records in one transaction
func (r *SQLitePairwiseRepository) Update(ctx context.Context, records ...*models.PairwiseRecord) error {
	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		return sqliteUpdatePairwise(ctx, tx, records)
	})
}

func sqliteUpdatePairwise(ctx context.Context, tx *sql.Tx, records []*models.PairwiseRecord) error {
	query := `UPDATE pairwise_records SET total_games = ?, wins = ?, win_freq = ? WHERE from_id = ? AND to_id = ?`

	for _, rec := range records {
		res, err := tx.ExecContext(ctx, query,
			rec.TotalGames, rec.Wins, rec.WinFreq, int64(rec.FromID), int64(rec.ToID),
		)
		if err != nil {
			return fmt.Errorf("failed to update pairwise record: %w", err)
		}
		if err := notFoundIfUnchanged(res, fmt.Sprintf("pairwise %s->%s", rec.FromID, rec.ToID)); err != nil {
			return err
		}
	}
	return nil
}

// SQLiteWindowRepository implements WindowRepository for SQLite
type SQLiteWindowRepository struct {
	db *database.SQLiteDB
}

// NewSQLiteWindowRepository creates a new rolling window repository
func NewSQLiteWindowRepository(db *database.SQLiteDB) WindowRepository {
	return &SQLiteWindowRepository{db: db}
}

// Create inserts a new rolling window
func (r *SQLiteWindowRepository) Create(ctx context.Context, window *models.RollingWindow) error {
	if err := window.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO rolling_windows (competitor_id, capacity, wins, losses, outcomes)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`

	res, err := r.db.Conn().ExecContext(ctx, query,
		int64(window.ID), window.Capacity, window.Wins, window.Losses, models.EncodeOutcomes(window.Outcomes),
	)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	return duplicateIfUnchanged(res, fmt.Sprintf("window %s", window.ID))
}

// Get retrieves a competitor's rolling window
func (r *SQLiteWindowRepository) Get(ctx context.Context, id models.CompetitorID) (*models.RollingWindow, error) {
	var (
		capacity, wins, losses int
		codes                  string
	)
	err := r.db.Conn().QueryRowContext(ctx,
		`SELECT capacity, wins, losses, outcomes FROM rolling_windows WHERE competitor_id = ?`, int64(id),
	).Scan(&capacity, &wins, &losses, &codes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("window %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get window: %w", err)
	}

	return models.RestoreWindow(id, capacity, wins, losses, codes)
}

// Update writes all windows in one transaction
func (r *SQLiteWindowRepository) Update(ctx context.Context, windows ...*models.RollingWindow) error {
	for _, w := range windows {
		if err := w.Validate(); err != nil {
			return err
		}
	}

	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		return sqliteUpdateWindows(ctx, tx, windows)
	})
}

func sqliteUpdateWindows(ctx context.Context, tx *sql.Tx, windows []*models.RollingWindow) error {
	query := `UPDATE rolling_windows SET capacity = ?, wins = ?, losses = ?, outcomes = ? WHERE competitor_id = ?`

	for _, w := range windows {
		res, err := tx.ExecContext(ctx, query,
			w.Capacity, w.Wins, w.Losses, models.EncodeOutcomes(w.Outcomes), int64(w.ID),
		)
		if err != nil {
			return fmt.Errorf("failed to update window %s: %w", w.ID, err)
		}
		if err := notFoundIfUnchanged(res, fmt.Sprintf("window %s", w.ID)); err != nil {
			return err
		}
	}
	return nil
}

// SQLiteGameLedger implements GameLedger for SQLite
type SQLiteGameLedger struct {
	db *database.SQLiteDB
}

// NewSQLiteGameLedger creates a new processed game ledger
func NewSQLiteGameLedger(db *database.SQLiteDB) GameLedger {
	return &SQLiteGameLedger{db: db}
}

// IsProcessed reports whether the game was already applied
func (l *SQLiteGameLedger) IsProcessed(ctx context.Context, gameID int64) (bool, error) {
	var count int
	err := l.db.Conn().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM processed_games WHERE game_id = ?`, gameID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check processed game: %w", err)
	}
	return count > 0, nil
}

// MarkProcessed records the game as applied
func (l *SQLiteGameLedger) MarkProcessed(ctx context.Context, gameID int64) error {
	_, err := l.db.Conn().ExecContext(ctx,
		`INSERT INTO processed_games (game_id) VALUES (?) ON CONFLICT DO NOTHING`, gameID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark game processed: %w", err)
	}
	return nil
}

type sqliteStore struct {
	db *database.SQLiteDB
}

func (s *sqliteStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) Apply(ctx context.Context, batch *Batch) error {
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := sqliteUpdateCompetitors(ctx, tx, batch.Competitors); err != nil {
			return err
		}
		if err := sqliteUpdatePairwise(ctx, tx, batch.Pairwise); err != nil {
			return err
		}
		if err := sqliteUpdateWindows(ctx, tx, batch.Windows); err != nil {
			return err
		}
		if batch.GameID == 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO processed_games (game_id) VALUES (?) ON CONFLICT DO NOTHING`, batch.GameID,
		); err != nil {
			return fmt.Errorf("failed to mark game processed: %w", err)
		}
		return nil
	})
}

func (s *sqliteStore) Reset(ctx context.Context, prior Prior) error {
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		statements := []struct {
			query string
			args  []interface{}
		}{
			{`UPDATE competitors SET mean = ?, uncertainty = ?, updated_at = CURRENT_TIMESTAMP`, []interface{}{prior.Rating.Mean, prior.Rating.Uncertainty}},
			{`UPDATE pairwise_records SET total_games = 0, wins = 0, win_freq = 0`, nil},
			{`UPDATE rolling_windows SET capacity = ?, wins = 0, losses = 0, outcomes = ''`, []interface{}{prior.WindowCapacity}},
			{`DELETE FROM processed_games`, nil},
		}
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
				return fmt.Errorf("failed to reset: %w", err)
			}
		}
		return nil
	})
}

func duplicateIfUnchanged(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, models.ErrDuplicateKey)
	}
	return nil
}

func notFoundIfUnchanged(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return nil
}
