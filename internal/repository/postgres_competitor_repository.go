package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/matchup-engine/internal/database"
	"github.com/yourusername/matchup-engine/internal/models"
)

const competitorColumns = `id, name, abbrev, mean, uncertainty, created_at, updated_at`

// PostgresCompetitorRepository implements CompetitorRepository for PostgreSQL
type PostgresCompetitorRepository struct {
	db *database.DB
}

// NewPostgresCompetitorRepository creates a new competitor repository
func NewPostgresCompetitorRepository(db *database.DB) CompetitorRepository {
	return &PostgresCompetitorRepository{db: db}
}

// Create inserts a new competitor
func (r *PostgresCompetitorRepository) Create(ctx context.Context, competitor *models.Competitor) error {
	query := `
		INSERT INTO competitors (id, name, abbrev, mean, uncertainty)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
	`

	tag, err := r.db.GetPool().Exec(ctx, query,
		int64(competitor.ID), competitor.Name, competitor.Abbrev,
		competitor.Rating.Mean, competitor.Rating.Uncertainty,
	)
	if err != nil {
		return fmt.Errorf("failed to create competitor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("competitor %s: %w", competitor.ID, models.ErrDuplicateKey)
	}

	return nil
}

// GetByID retrieves a competitor by ID
func (r *PostgresCompetitorRepository) GetByID(ctx context.Context, id models.CompetitorID) (*models.Competitor, error) {
	query := `SELECT ` + competitorColumns + ` FROM competitors WHERE id = $1`
	return r.getOne(ctx, query, int64(id))
}

// GetByAbbrev retrieves a competitor by its short code
func (r *PostgresCompetitorRepository) GetByAbbrev(ctx context.Context, abbrev string) (*models.Competitor, error) {
	query := `SELECT ` + competitorColumns + ` FROM competitors WHERE abbrev = $1`
	return r.getOne(ctx, query, abbrev)
}

func (r *PostgresCompetitorRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.Competitor, error) {
	c, err := scanCompetitor(r.db.GetPool().QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("competitor %v: %w", arg, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get competitor: %w", err)
	}
	return c, nil
}

// List returns all competitors ordered by ID
func (r *PostgresCompetitorRepository) List(ctx context.Context) ([]*models.Competitor, error) {
	query := `SELECT ` + competitorColumns + ` FROM competitors ORDER BY id ASC`

	rows, err := r.db.GetPool().Query(ctx, query)
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
func (r *PostgresCompetitorRepository) UpdateRatings(ctx context.Context, competitors ...*models.Competitor) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		return pgUpdateCompetitors(ctx, tx, competitors)
	})
}

func pgUpdateCompetitors(ctx context.Context, tx pgx.Tx, competitors []*models.Competitor) error {
	query := `UPDATE competitors SET mean = $2, uncertainty = $3, updated_at = NOW() WHERE id = $1`

	for _, c := range competitors {
		tag, err := tx.Exec(ctx, query, int64(c.ID), c.Rating.Mean, c.Rating.Uncertainty)
		if err != nil {
			return fmt.Errorf("failed to update competitor %s: %w", c.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("competitor %s: %w", c.ID, models.ErrNotFound)
		}
	}
	return nil
}

// rowScanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCompetitor(row rowScanner) (*models.Competitor, error) {
	var (
		c  models.Competitor
		id int64
	)
	if err := row.Scan(&id, &c.Name, &c.Abbrev, &c.Rating.Mean, &c.Rating.Uncertainty, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ID = models.CompetitorID(id)
	return &c, nil
}
