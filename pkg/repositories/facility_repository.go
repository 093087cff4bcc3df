package repositories

import (
	"context"
	"fmt"

	"github.com/prefeitura-rio/regulacao-etl/pkg/database"
	"github.com/prefeitura-rio/regulacao-etl/pkg/models"
)

// FacilityRepository loads normalized facilities into unidades_saude.
//
// The registry is a full-refresh extract, so the load is an upsert keyed
// on cnes: existing rows are overwritten in place, new keys inserted, and
// keys absent from the extract left untouched (never deleted) so queue
// rows referencing them stay resolvable.
type FacilityRepository interface {
	UpsertBatch(ctx context.Context, facilities []models.Facility) error
	Count(ctx context.Context) (int, error)
	Names(ctx context.Context) ([]string, error)
}

type facilityRepository struct {
	db *database.DB
}

// NewFacilityRepository creates a FacilityRepository backed by Postgres.
func NewFacilityRepository(db *database.DB) FacilityRepository {
	return &facilityRepository{db: db}
}

var _ FacilityRepository = (*facilityRepository)(nil)

const upsertFacilitySQL = `
	INSERT INTO unidades_saude (
		cnes, nome_unidade, tipo, tipo_abc, endereco, bairro, municipio,
		cap, telefone, email, horario_semana, horario_sabado,
		data_inauguracao, ativo, latitude, longitude
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (cnes) DO UPDATE SET
		nome_unidade = EXCLUDED.nome_unidade,
		tipo = EXCLUDED.tipo,
		tipo_abc = EXCLUDED.tipo_abc,
		endereco = EXCLUDED.endereco,
		bairro = EXCLUDED.bairro,
		municipio = EXCLUDED.municipio,
		cap = EXCLUDED.cap,
		telefone = EXCLUDED.telefone,
		email = EXCLUDED.email,
		horario_semana = EXCLUDED.horario_semana,
		horario_sabado = EXCLUDED.horario_sabado,
		data_inauguracao = EXCLUDED.data_inauguracao,
		ativo = EXCLUDED.ativo,
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude`

// UpsertBatch writes all facilities in a single transaction with the
// same all-or-nothing semantics as the queue load.
func (r *facilityRepository) UpsertBatch(ctx context.Context, facilities []models.Facility) error {
	if len(facilities) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, f := range facilities {
		_, err := tx.Exec(ctx, upsertFacilitySQL,
			f.Cnes,
			f.Name,
			f.Type,
			f.TypeABC,
			f.Address,
			f.District,
			f.Municipality,
			f.CareAreaCode,
			f.Phone,
			f.Email,
			f.WeekdayHours,
			f.SaturdayHours,
			f.InaugurationDate,
			f.Active,
			f.Latitude,
			f.Longitude,
		)
		if err != nil {
			return batchError("unidades_saude", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit facility batch: %w", err)
	}

	return nil
}

// Count returns the number of facilities currently loaded.
func (r *facilityRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM unidades_saude`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count facilities: %w", err)
	}
	return count, nil
}

// Names returns the loaded facility names. The synthetic-data generator
// samples these so generated queue rows reference only known facilities.
func (r *facilityRepository) Names(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT nome_unidade FROM unidades_saude ORDER BY nome_unidade`)
	if err != nil {
		return nil, fmt.Errorf("failed to list facility names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan facility name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate facility names: %w", err)
	}
	return names, nil
}
