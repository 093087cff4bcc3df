package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prefeitura-rio/regulacao-etl/pkg/apperrors"
	"github.com/prefeitura-rio/regulacao-etl/pkg/config"
	"github.com/prefeitura-rio/regulacao-etl/pkg/models"
	"github.com/prefeitura-rio/regulacao-etl/pkg/transform"
)

type fakeSchema struct {
	calls int
	err   error
}

func (f *fakeSchema) EnsureSchema(ctx context.Context) error {
	f.calls++
	return f.err
}

type fakeQueueRepo struct {
	inserted []models.QueueRecord
	err      error
}

func (f *fakeQueueRepo) InsertBatch(ctx context.Context, records []models.QueueRecord) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, records...)
	return nil
}

type fakeFacilityRepo struct {
	upserted []models.Facility
	err      error
}

func (f *fakeFacilityRepo) UpsertBatch(ctx context.Context, facilities []models.Facility) error {
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, facilities...)
	return nil
}

func (f *fakeFacilityRepo) Count(ctx context.Context) (int, error) {
	return len(f.upserted), nil
}

func (f *fakeFacilityRepo) Names(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(f.upserted))
	for _, fac := range f.upserted {
		names = append(names, fac.Name)
	}
	return names, nil
}

type fakeRunLog struct {
	created  []models.RunSummary
	finished []models.RunSummary
}

func (f *fakeRunLog) Create(ctx context.Context, s *models.RunSummary) error {
	f.created = append(f.created, *s)
	return nil
}

func (f *fakeRunLog) Finish(ctx context.Context, s *models.RunSummary) error {
	f.finished = append(f.finished, *s)
	return nil
}

type testPipeline struct {
	pipeline   *Pipeline
	schema     *fakeSchema
	queue      *fakeQueueRepo
	facilities *fakeFacilityRepo
	runs       *fakeRunLog
}

func newTestPipeline(t *testing.T) *testPipeline {
	t.Helper()
	anonymizer, err := transform.NewAnonymizer(config.StrategyInitials)
	require.NoError(t, err)

	tp := &testPipeline{
		schema:     &fakeSchema{},
		queue:      &fakeQueueRepo{},
		facilities: &fakeFacilityRepo{},
		runs:       &fakeRunLog{},
	}
	tp.pipeline = New(Deps{
		Schema:     tp.schema,
		Queue:      tp.queue,
		Facilities: tp.facilities,
		Runs:       tp.runs,
		Anonymizer: anonymizer,
		Logger:     zap.NewNop(),
	})
	return tp
}

const queueHeader = "id_paciente,nome_paciente,gravidade,procedimento_solicitado,unidade_origem,data_solicitacao"

func TestRunQueue_SummaryScenario(t *testing.T) {
	// Rows 1 and 2 are exact duplicates; row 3 has an empty patient id.
	input := strings.Join([]string{
		queueHeader,
		"100,Maria Silva,Vermelho,Vaga de UTI Adulto,UPA Madureira,2024-03-01 10:00:00",
		"100,Maria Silva,Vermelho,Vaga de UTI Adulto,UPA Madureira,2024-03-01 10:00:00",
		",Joao Souza,Verde,Tomografia,CMS Fazenda Botafogo,2024-03-02 08:00:00",
	}, "\n")

	tp := newTestPipeline(t)
	summary, err := tp.pipeline.runQueue(context.Background(), "dados_regulacao.csv", strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Read)
	assert.Equal(t, 1, summary.Deduplicated)
	assert.Equal(t, 1, summary.Invalid)
	assert.Equal(t, 1, summary.Loaded)

	require.Len(t, tp.queue.inserted, 1)
	rec := tp.queue.inserted[0]
	assert.Equal(t, 100, rec.PatientID)
	assert.Equal(t, "M. S.", rec.AnonymizedName)
}

func TestRunQueue_NoRawNameReachesLoader(t *testing.T) {
	input := strings.Join([]string{
		queueHeader,
		"100,Maria Silva,Vermelho,Tomografia,UPA Madureira,2024-03-01",
	}, "\n")

	tp := newTestPipeline(t)
	_, err := tp.pipeline.runQueue(context.Background(), "src.csv", strings.NewReader(input))
	require.NoError(t, err)

	for _, rec := range tp.queue.inserted {
		assert.NotContains(t, rec.AnonymizedName, "Maria")
		assert.NotContains(t, rec.AnonymizedName, "Silva")
	}
}

func TestRunQueue_SchemaEnsuredOncePerPipeline(t *testing.T) {
	input := queueHeader + "\n100,Maria Silva,Verde,Tomografia,UPA,2024-03-01\n"

	tp := newTestPipeline(t)
	_, err := tp.pipeline.runQueue(context.Background(), "a.csv", strings.NewReader(input))
	require.NoError(t, err)
	_, err = tp.pipeline.runQueue(context.Background(), "b.csv", strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 1, tp.schema.calls)
}

func TestRunQueue_SchemaFailureAbortsBeforeLoad(t *testing.T) {
	input := queueHeader + "\n100,Maria Silva,Verde,Tomografia,UPA,2024-03-01\n"

	tp := newTestPipeline(t)
	tp.schema.err = errors.New("permission denied for schema public")

	_, err := tp.pipeline.runQueue(context.Background(), "a.csv", strings.NewReader(input))
	require.Error(t, err)

	var stageErr *apperrors.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, apperrors.StageSchema, stageErr.Stage)
	assert.Empty(t, tp.queue.inserted)
	assert.Empty(t, tp.runs.created)
}

func TestRunQueue_LoadFailureIsStageTaggedAndRunLogged(t *testing.T) {
	input := queueHeader + "\n100,Maria Silva,Verde,Tomografia,UPA,2024-03-01\n"

	tp := newTestPipeline(t)
	tp.queue.err = &apperrors.BatchInsertError{Table: "fila_regulacao", Index: 0, Err: errors.New("not null violation")}

	summary, err := tp.pipeline.runQueue(context.Background(), "a.csv", strings.NewReader(input))
	require.Error(t, err)

	var stageErr *apperrors.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, apperrors.StageLoad, stageErr.Stage)

	var batchErr *apperrors.BatchInsertError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 0, batchErr.Index)

	// Partial success is never reported as success.
	assert.Equal(t, 0, summary.Loaded)
	require.Len(t, tp.runs.finished, 1)
	assert.Equal(t, models.RunStatusFailed, tp.runs.finished[0].Status)
	assert.NotEmpty(t, tp.runs.finished[0].Error)
}

func TestRun_MissingSourceFile(t *testing.T) {
	tp := newTestPipeline(t)
	_, err := tp.pipeline.Run(context.Background(), "/nonexistent/dados.csv")
	require.Error(t, err)

	var stageErr *apperrors.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, apperrors.StageExtract, stageErr.Stage)
}

func TestRunFacilities_Flow(t *testing.T) {
	input := strings.Join([]string{
		"cnes,nome_unidade,tipo,latitude,longitude,ativo",
		"0001,UPA Madureira,UPA,-22.9,-43.2,1",
		",Sem Cnes,UPA,-22.9,-43.2,1",
	}, "\n")

	tp := newTestPipeline(t)
	summary, err := tp.pipeline.runFacilities(context.Background(), "raw_unidades.csv", strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Read)
	assert.Equal(t, 1, summary.Invalid)
	assert.Equal(t, 1, summary.Loaded)
	require.Len(t, tp.facilities.upserted, 1)
	assert.Equal(t, "0001", tp.facilities.upserted[0].Cnes)

	require.Len(t, tp.runs.finished, 1)
	assert.Equal(t, models.RunStatusSuccess, tp.runs.finished[0].Status)
	assert.Equal(t, models.RunKindFacilities, tp.runs.finished[0].Kind)
}

func TestRunQueue_RunLogRecordsCounts(t *testing.T) {
	input := strings.Join([]string{
		queueHeader,
		"100,Maria Silva,Verde,Tomografia,UPA,2024-03-01",
		"100,Maria Silva,Verde,Tomografia,UPA,2024-03-01",
	}, "\n")

	tp := newTestPipeline(t)
	_, err := tp.pipeline.runQueue(context.Background(), "a.csv", strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, tp.runs.created, 1)
	assert.Equal(t, models.RunStatusInProgress, tp.runs.created[0].Status)
	require.Len(t, tp.runs.finished, 1)
	final := tp.runs.finished[0]
	assert.Equal(t, models.RunStatusSuccess, final.Status)
	assert.Equal(t, 2, final.Read)
	assert.Equal(t, 1, final.Deduplicated)
	assert.Equal(t, 1, final.Loaded)
}
