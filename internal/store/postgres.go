package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deisterstuff/investment/internal/optimizer"
)

// RunRepository implements Repository on Postgres (runs as JSONB)
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a new run repository
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

const schema = `
	CREATE TABLE IF NOT EXISTS portfolio_runs (
		id           UUID PRIMARY KEY,
		profile      TEXT NOT NULL,
		profile_hash TEXT NOT NULL,
		trigger      TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		payload      JSONB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_portfolio_runs_created_at ON portfolio_runs (created_at DESC);
`

// EnsureSchema creates the runs table if missing
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// Save upserts a run
func (r *RunRepository) Save(ctx context.Context, run *optimizer.Run) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	query := `
		INSERT INTO portfolio_runs (id, profile, profile_hash, trigger, created_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload
	`

	_, err = r.pool.Exec(ctx, query,
		run.ID, run.Profile, run.ProfileHash, string(run.Trigger), run.CreatedAt, payload)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// Get loads a run by id
func (r *RunRepository) Get(ctx context.Context, id string) (*optimizer.Run, error) {
	query := `SELECT payload FROM portfolio_runs WHERE id = $1`

	var payload []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var run optimizer.Run
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &run, nil
}

// ListRecent returns the newest runs first
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]optimizer.Summary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		SELECT payload
		FROM portfolio_runs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	summaries := make([]optimizer.Summary, 0, limit)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var run optimizer.Run
		if err := json.Unmarshal(payload, &run); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run: %w", err)
		}
		summaries = append(summaries, run.Summarize())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return summaries, nil
}

// Prune deletes runs created before cutoff
func (r *RunRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM portfolio_runs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return tag.RowsAffected(), nil
}
