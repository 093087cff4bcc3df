package repositories

import (
	"context"
	"fmt"

	"github.com/prefeitura-rio/regulacao-etl/pkg/database"
	"github.com/prefeitura-rio/regulacao-etl/pkg/models"
)

// RunLogRepository records pipeline runs in etl_runs. fila_regulacao has
// no natural key, so the run log is what makes an accidental re-run of an
// already-loaded file diagnosable after the fact.
type RunLogRepository interface {
	Create(ctx context.Context, summary *models.RunSummary) error
	Finish(ctx context.Context, summary *models.RunSummary) error
}

type runLogRepository struct {
	db *database.DB
}

// NewRunLogRepository creates a RunLogRepository backed by Postgres.
func NewRunLogRepository(db *database.DB) RunLogRepository {
	return &runLogRepository{db: db}
}

var _ RunLogRepository = (*runLogRepository)(nil)

// Create inserts the in-progress run entry.
func (r *runLogRepository) Create(ctx context.Context, summary *models.RunSummary) error {
	query := `
		INSERT INTO etl_runs (id, kind, source, status, started_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		summary.RunID,
		summary.Kind,
		summary.Source,
		models.RunStatusInProgress,
		summary.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create run log entry: %w", err)
	}
	return nil
}

// Finish records the final counters and status for a run.
func (r *runLogRepository) Finish(ctx context.Context, summary *models.RunSummary) error {
	query := `
		UPDATE etl_runs
		SET read = $2, deduplicated = $3, invalid = $4, loaded = $5,
		    status = $6, error = $7, finished_at = $8
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query,
		summary.RunID,
		summary.Read,
		summary.Deduplicated,
		summary.Invalid,
		summary.Loaded,
		summary.Status,
		nullIfEmpty(summary.Error),
		summary.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run log entry: %w", err)
	}
	return nil
}

// nullIfEmpty maps "" to SQL NULL.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
