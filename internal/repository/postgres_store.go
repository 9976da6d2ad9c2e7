package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/matchup-engine/internal/database"
)

// PostgresGameLedger implements GameLedger for PostgreSQL
type PostgresGameLedger struct {
	db *database.DB
}

// NewPostgresGameLedger creates a new processed game ledger
func NewPostgresGameLedger(db *database.DB) GameLedger {
	return &PostgresGameLedger{db: db}
}

// IsProcessed reports whether the game was already applied
func (l *PostgresGameLedger) IsProcessed(ctx context.Context, gameID int64) (bool, error) {
	var exists bool
	err := l.db.GetPool().QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_games WHERE game_id = $1)`, gameID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check processed game: %w", err)
	}
	return exists, nil
}

// MarkProcessed records the game as applied
func (l *PostgresGameLedger) MarkProcessed(ctx context.Context, gameID int64) error {
	_, err := l.db.GetPool().Exec(ctx,
		`INSERT INTO processed_games (game_id) VALUES ($1) ON CONFLICT DO NOTHING`, gameID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark game processed: %w", err)
	}
	return nil
}

type postgresStore struct {
	db *database.DB
}

func (s *postgresStore) Ping(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

func (s *postgresStore) Close() error {
	return s.db.Close()
}

func (s *postgresStore) Apply(ctx context.Context, batch *Batch) error {
	return s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if err := pgUpdateCompetitors(ctx, tx, batch.Competitors); err != nil {
			return err
		}
		if err := pgUpdatePairwise(ctx, tx, batch.Pairwise); err != nil {
			return err
		}
		if err := pgUpdateWindows(ctx, tx, batch.Windows); err != nil {
			return err
		}
		if batch.GameID == 0 {
			return nil
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO processed_games (game_id) VALUES ($1) ON CONFLICT DO NOTHING`, batch.GameID,
		); err != nil {
			return fmt.Errorf("failed to mark game processed: %w", err)
		}
		return nil
	})
}

func (s *postgresStore) Reset(ctx context.Context, prior Prior) error {
	return s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		statements := []struct {
			query string
			args  []interface{}
		}{
			{`UPDATE competitors SET mean = $1, uncertainty = $2, updated_at = NOW()`, []interface{}{prior.Rating.Mean, prior.Rating.Uncertainty}},
			{`UPDATE pairwise_records SET total_games = 0, wins = 0, win_freq = 0`, nil},
			{`UPDATE rolling_windows SET capacity = $1, wins = 0, losses = 0, outcomes = ''`, []interface{}{prior.WindowCapacity}},
			{`DELETE FROM processed_games`, nil},
		}
		for _, stmt := range statements {
			if _, err := tx.Exec(ctx, stmt.query, stmt.args...); err != nil {
				return fmt.Errorf("failed to reset: %w", err)
			}
		}
		return nil
	})
}
