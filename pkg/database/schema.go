package database

import (
	"context"
	"fmt"
)

// Destination schema. CREATE TABLE IF NOT EXISTS keeps EnsureSchema
// idempotent: calling it on every run is safe and it never alters a
// pre-existing table.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS fila_regulacao (
		id bigserial PRIMARY KEY,
		id_paciente integer NOT NULL,
		nome_anonimo text,
		gravidade text,
		procedimento_solicitado text,
		unidade_origem text,
		data_solicitacao timestamp without time zone
	)`,
	`CREATE TABLE IF NOT EXISTS unidades_saude (
		cnes text PRIMARY KEY,
		nome_unidade text,
		tipo text,
		tipo_abc text,
		endereco text,
		bairro text,
		municipio text DEFAULT 'Rio de Janeiro',
		cap text,
		telefone text,
		email text,
		horario_semana text,
		horario_sabado text,
		data_inauguracao date,
		ativo boolean,
		latitude float,
		longitude float
	)`,
	`CREATE TABLE IF NOT EXISTS etl_runs (
		id uuid PRIMARY KEY,
		kind text NOT NULL,
		source text,
		read integer NOT NULL DEFAULT 0,
		deduplicated integer NOT NULL DEFAULT 0,
		invalid integer NOT NULL DEFAULT 0,
		loaded integer NOT NULL DEFAULT 0,
		status text NOT NULL,
		error text,
		started_at timestamp without time zone NOT NULL,
		finished_at timestamp without time zone
	)`,
}

// EnsureSchema creates the destination tables if they are absent.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
