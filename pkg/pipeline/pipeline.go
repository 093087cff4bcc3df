// Package pipeline sequences the ETL stages: extract, clean, anonymize,
// load. A run is batch-oriented and single-threaded; on any fatal failure
// it stops and surfaces a stage-tagged error, leaving re-running to the
// caller (no retries, no partial recovery).
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prefeitura-rio/regulacao-etl/pkg/apperrors"
	"github.com/prefeitura-rio/regulacao-etl/pkg/extract"
	"github.com/prefeitura-rio/regulacao-etl/pkg/models"
	"github.com/prefeitura-rio/regulacao-etl/pkg/repositories"
	"github.com/prefeitura-rio/regulacao-etl/pkg/transform"
)

// SchemaEnsurer creates the destination tables if absent. Satisfied by
// *database.DB.
type SchemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

// Deps are the pipeline's collaborators. Tests substitute fakes; main
// wires the Postgres-backed implementations.
type Deps struct {
	Schema     SchemaEnsurer
	Queue      repositories.QueueRepository
	Facilities repositories.FacilityRepository
	Runs       repositories.RunLogRepository
	Anonymizer *transform.Anonymizer
	Logger     *zap.Logger
}

// Pipeline orchestrates ETL runs against one destination store.
type Pipeline struct {
	deps        Deps
	schemaReady bool
}

// New creates a Pipeline. The anonymization strategy is fixed inside
// Deps.Anonymizer for the pipeline's lifetime; two pipelines with
// different strategies can coexist in one process.
func New(deps Deps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Pipeline{deps: deps}
}

// Run executes the referral-queue flow for the given source file and
// returns the run summary. Facilities referenced by the queue rows must
// already be loaded (see RunFacilities).
func (p *Pipeline) Run(ctx context.Context, source string) (models.RunSummary, error) {
	f, err := os.Open(source)
	if err != nil {
		return models.RunSummary{}, apperrors.NewStageError(apperrors.StageExtract,
			fmt.Errorf("failed to open queue extract: %w", err))
	}
	defer f.Close()

	return p.runQueue(ctx, source, f)
}

func (p *Pipeline) runQueue(ctx context.Context, source string, r io.Reader) (models.RunSummary, error) {
	summary := models.RunSummary{
		RunID:     uuid.New(),
		Kind:      models.RunKindQueue,
		Source:    source,
		StartedAt: time.Now(),
	}

	rows, err := extract.ReadQueueCSV(r)
	if err != nil {
		return summary, apperrors.NewStageError(apperrors.StageExtract, err)
	}
	summary.Read = len(rows)

	candidates, stats := transform.CleanQueueRows(rows, p.deps.Logger)
	summary.Deduplicated = stats.Deduplicated
	summary.Invalid = stats.Invalid

	// Anonymization is mandatory and happens before any call to the
	// loader; records carry no raw name from here on.
	records := p.deps.Anonymizer.Apply(candidates)

	if err := p.ensureSchema(ctx); err != nil {
		return summary, err
	}

	p.logRunStart(ctx, &summary)

	if err := p.deps.Queue.InsertBatch(ctx, records); err != nil {
		p.logRunFinish(ctx, &summary, models.RunStatusFailed, err)
		return summary, apperrors.NewStageError(apperrors.StageLoad, err)
	}
	summary.Loaded = len(records)

	p.logRunFinish(ctx, &summary, models.RunStatusSuccess, nil)

	p.deps.Logger.Info("Queue run finished",
		zap.String("run_id", summary.RunID.String()),
		zap.Int("read", summary.Read),
		zap.Int("deduplicated", summary.Deduplicated),
		zap.Int("invalid", summary.Invalid),
		zap.Int("loaded", summary.Loaded))

	return summary, nil
}

// RunFacilities executes the facility-registry flow for the given source
// file. It must run before the queue flow that references the facilities.
func (p *Pipeline) RunFacilities(ctx context.Context, source string) (models.RunSummary, error) {
	f, err := os.Open(source)
	if err != nil {
		return models.RunSummary{}, apperrors.NewStageError(apperrors.StageExtract,
			fmt.Errorf("failed to open facility extract: %w", err))
	}
	defer f.Close()

	return p.runFacilities(ctx, source, f)
}

func (p *Pipeline) runFacilities(ctx context.Context, source string, r io.Reader) (models.RunSummary, error) {
	summary := models.RunSummary{
		RunID:     uuid.New(),
		Kind:      models.RunKindFacilities,
		Source:    source,
		StartedAt: time.Now(),
	}

	rows, err := extract.ReadFacilityCSV(r)
	if err != nil {
		return summary, apperrors.NewStageError(apperrors.StageExtract, err)
	}
	summary.Read = len(rows)

	facilities, stats := transform.NormalizeFacilities(rows, p.deps.Logger)
	summary.Invalid = stats.Excluded

	if err := p.ensureSchema(ctx); err != nil {
		return summary, err
	}

	p.logRunStart(ctx, &summary)

	if err := p.deps.Facilities.UpsertBatch(ctx, facilities); err != nil {
		p.logRunFinish(ctx, &summary, models.RunStatusFailed, err)
		return summary, apperrors.NewStageError(apperrors.StageLoad, err)
	}
	summary.Loaded = len(facilities)

	p.logRunFinish(ctx, &summary, models.RunStatusSuccess, nil)

	p.deps.Logger.Info("Facility run finished",
		zap.String("run_id", summary.RunID.String()),
		zap.Int("read", summary.Read),
		zap.Int("excluded", summary.Invalid),
		zap.Int("loaded", summary.Loaded))

	return summary, nil
}

// ensureSchema creates the destination tables once per pipeline, before
// the first load.
func (p *Pipeline) ensureSchema(ctx context.Context) error {
	if p.schemaReady {
		return nil
	}
	if err := p.deps.Schema.EnsureSchema(ctx); err != nil {
		return apperrors.NewStageError(apperrors.StageSchema, err)
	}
	p.schemaReady = true
	return nil
}

// logRunStart records the in-progress run. Run-log bookkeeping is
// best-effort: a failure here is logged but never fails the run.
func (p *Pipeline) logRunStart(ctx context.Context, summary *models.RunSummary) {
	summary.Status = models.RunStatusInProgress
	if p.deps.Runs == nil {
		return
	}
	if err := p.deps.Runs.Create(ctx, summary); err != nil {
		p.deps.Logger.Warn("Failed to create run log entry",
			zap.String("run_id", summary.RunID.String()),
			zap.Error(err))
	}
}

func (p *Pipeline) logRunFinish(ctx context.Context, summary *models.RunSummary, status string, runErr error) {
	summary.Status = status
	summary.FinishedAt = time.Now()
	if runErr != nil {
		summary.Error = runErr.Error()
	}
	if p.deps.Runs == nil {
		return
	}
	if err := p.deps.Runs.Finish(ctx, summary); err != nil {
		p.deps.Logger.Warn("Failed to finish run log entry",
			zap.String("run_id", summary.RunID.String()),
			zap.Error(err))
	}
}
