package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/prefeitura-rio/regulacao-etl/pkg/apperrors"
	"github.com/prefeitura-rio/regulacao-etl/pkg/database"
	"github.com/prefeitura-rio/regulacao-etl/pkg/models"
)

// QueueRepository loads cleaned queue records into fila_regulacao.
//
// The load is append-only: the store assigns the surrogate id and existing
// rows are never touched. fila_regulacao has no natural key, so re-running
// the pipeline against an already-loaded source file inserts duplicate
// rows. That is a documented limitation of the schema, not something this
// repository guesses a key to work around; in-batch duplicates are handled
// upstream by the cleaner.
type QueueRepository interface {
	InsertBatch(ctx context.Context, records []models.QueueRecord) error
}

type queueRepository struct {
	db *database.DB
}

// NewQueueRepository creates a QueueRepository backed by Postgres.
func NewQueueRepository(db *database.DB) QueueRepository {
	return &queueRepository{db: db}
}

var _ QueueRepository = (*queueRepository)(nil)

const insertQueueRecordSQL = `
	INSERT INTO fila_regulacao (
		id_paciente, nome_anonimo, gravidade,
		procedimento_solicitado, unidade_origem, data_solicitacao
	) VALUES ($1, $2, $3, $4, $5, $6)`

// InsertBatch appends all records in a single transaction. Any row
// failing a constraint rolls back the whole call and the returned
// BatchInsertError names the offending row's position; readers never
// observe a partial batch.
func (r *queueRepository) InsertBatch(ctx context.Context, records []models.QueueRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, rec := range records {
		_, err := tx.Exec(ctx, insertQueueRecordSQL,
			rec.PatientID,
			rec.AnonymizedName,
			rec.Urgency,
			rec.ProcedureRequested,
			rec.OriginFacility,
			rec.RequestTimestamp,
		)
		if err != nil {
			return batchError("fila_regulacao", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit queue batch: %w", err)
	}

	return nil
}

// batchError wraps a row-level insert failure, extracting the violated
// constraint name when the driver reports one.
func batchError(table string, index int, err error) *apperrors.BatchInsertError {
	batchErr := &apperrors.BatchInsertError{Table: table, Index: index, Err: err}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		batchErr.Constraint = pgErr.ConstraintName
		if batchErr.Constraint == "" && pgErr.ColumnName != "" {
			batchErr.Constraint = pgErr.ColumnName
		}
	}
	return batchErr
}
