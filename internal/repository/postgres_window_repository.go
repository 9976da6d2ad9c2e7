package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/matchup-engine/internal/database"
	"github.com/yourusername/matchup-engine/internal/models"
)

// PostgresWindowRepository implements WindowRepository for PostgreSQL.
// Outcomes are stored oldest first as a string of W/L/D codes.
type PostgresWindowRepository struct {
	db *database.DB
}

// NewPostgresWindowRepository creates a new rolling window repository
func NewPostgresWindowRepository(db *database.DB) WindowRepository {
	return &PostgresWindowRepository{db: db}
}

// Create inserts a new rolling window
func (r *PostgresWindowRepository) Create(ctx context.Context, window *models.RollingWindow) error {
	if err := window.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO rolling_windows (competitor_id, capacity, wins, losses, outcomes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
	`

	tag, err := r.db.GetPool().Exec(ctx, query,
		int64(window.ID), window.Capacity, window.Wins, window.Losses, models.EncodeOutcomes(window.Outcomes),
	)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("window %s: %w", window.ID, models.ErrDuplicateKey)
	}

	return nil
}

// Get retrieves a competitor's rolling window
func (r *PostgresWindowRepository) Get(ctx context.Context, id models.CompetitorID) (*models.RollingWindow, error) {
	query := `SELECT capacity, wins, losses, outcomes FROM rolling_windows WHERE competitor_id = $1`

	var (
		capacity, wins, losses int
		codes                  string
	)
	err := r.db.GetPool().QueryRow(ctx, query, int64(id)).Scan(&capacity, &wins, &losses, &codes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("window %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get window: %w", err)
	}

	return models.RestoreWindow(id, capacity, wins, losses, codes)
}

// Update writes all windows in one transaction
func (r *PostgresWindowRepository) Update(ctx context.Context, windows ...*models.RollingWindow) error {
	for _, w := range windows {
		if err := w.Validate(); err != nil {
			return err
		}
	}

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		return pgUpdateWindows(ctx, tx, windows)
	})
}

func pgUpdateWindows(ctx context.Context, tx pgx.Tx, windows []*models.RollingWindow) error {
	query := `
		UPDATE rolling_windows SET capacity = $2, wins = $3, losses = $4, outcomes = $5
		WHERE competitor_id = $1
	`

	for _, w := range windows {
		tag, err := tx.Exec(ctx, query,
			int64(w.ID), w.Capacity, w.Wins, w.Losses, models.EncodeOutcomes(w.Outcomes),
		)
		if err != nil {
			return fmt.Errorf("failed to update window %s: %w", w.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("window %s: %w", w.ID, models.ErrNotFound)
		}
	}
	return nil
}
