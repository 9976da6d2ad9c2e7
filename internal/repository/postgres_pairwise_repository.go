package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/matchup-engine/internal/database"
	"github.com/yourusername/matchup-engine/internal/models"
)

// PostgresPairwiseRepository implements PairwiseRepository for PostgreSQL
type PostgresPairwiseRepository struct {
	db *database.DB
}

// NewPostgresPairwiseRepository creates a new head-to-head repository
func NewPostgresPairwiseRepository(db *database.DB) PairwiseRepository {
	return &PostgresPairwiseRepository{db: db}
}

// Create inserts a new head-to-head record
func (r *PostgresPairwiseRepository) Create(ctx context.Context, record *models.PairwiseRecord) error {
	query := `
		INSERT INTO pairwise_records (from_id, to_id, total_games, wins, win_freq)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
	`

	tag, err := r.db.GetPool().Exec(ctx, query,
		int64(record.FromID), int64(record.ToID), record.TotalGames, record.Wins, record.WinFreq,
	)
	if err != nil {
		return fmt.Errorf("failed to create pairwise record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pairwise %s->%s: %w", record.FromID, record.ToID, models.ErrDuplicateKey)
	}

	return nil
}

// Get retrieves the directional record of from against to
func (r *PostgresPairwiseRepository) Get(ctx context.Context, from, to models.CompetitorID) (*models.PairwiseRecord, error) {
	query := `
		SELECT total_games, wins, win_freq
		FROM pairwise_records WHERE from_id = $1 AND to_id = $2
	`

	rec := models.NewPairwiseRecord(from, to)
	err := r.db.GetPool().QueryRow(ctx, query, int64(from), int64(to)).Scan(&rec.TotalGames, &rec.Wins, &rec.WinFreq)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("pairwise %s->%s: %w", from, to, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pairwise record: %w", err)
	}

	return rec, nil
}

// Update writes all records in one transaction
func (r *PostgresPairwiseRepository) Update(ctx context.Context, records ...*models.PairwiseRecord) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		return pgUpdatePairwise(ctx, tx, records)
	})
}

func pgUpdatePairwise(ctx context.Context, tx pgx.Tx, records []*models.PairwiseRecord) error {
	query := `
		UPDATE pairwise_records SET total_games = $3, wins = $4, win_freq = $5
		WHERE from_id = $1 AND to_id = $2
	`

	for _, rec := range records {
		tag, err := tx.Exec(ctx, query,
			int64(rec.FromID), int64(rec.ToID), rec.TotalGames, rec.Wins, rec.WinFreq,
		)
		if err != nil {
			return fmt.Errorf("failed to update pairwise record: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("pairwise %s->%s: %w", rec.FromID, rec.ToID, models.ErrNotFound)
		}
	}
	return nil
}
