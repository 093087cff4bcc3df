// Package extract reads the raw tabular extracts (referral queue and
// facility registry) into untyped row structs. Header order is not
// assumed; columns are matched by name. The facility export comes from a
// locale that uses semicolon-delimited CSV and a UTF-8 BOM, so both are
// tolerated.
package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/prefeitura-rio/regulacao-etl/pkg/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readTable reads an entire CSV input and returns the lower-cased header
// and the data rows. The delimiter is sniffed from the header line
// (semicolon wins if it appears more often than comma).
func readTable(r io.Reader) (header []string, rows [][]string, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read input: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	firstLine := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		firstLine = data[:idx]
	}
	delimiter := ','
	if bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		delimiter = ';'
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("empty input: missing header row")
	}

	header = make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return header, records[1:], nil
}

// columnIndex builds a column name -> position map from the header.
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	return idx
}

// field returns the trimmed cell under any of the given column names, or
// "" when the column is absent or the row is short.
func field(row []string, idx map[string]int, names ...string) string {
	for _, name := range names {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			continue
		}
		return strings.TrimSpace(row[i])
	}
	return ""
}

// ReadQueueCSV reads the referral-queue extract. Required columns:
// id_paciente, nome_paciente, gravidade, procedimento_solicitado,
// unidade_origem, data_solicitacao.
func ReadQueueCSV(r io.Reader) ([]models.RawQueueRow, error) {
	header, rows, err := readTable(r)
	if err != nil {
		return nil, err
	}
	idx := columnIndex(header)

	if _, ok := idx["id_paciente"]; !ok {
		return nil, fmt.Errorf("queue extract is missing the id_paciente column")
	}

	out := make([]models.RawQueueRow, 0, len(rows))
	for i, row := range rows {
		out = append(out, models.RawQueueRow{
			Position:           i,
			PatientID:          field(row, idx, "id_paciente"),
			PatientName:        field(row, idx, "nome_paciente"),
			Urgency:            field(row, idx, "gravidade"),
			ProcedureRequested: field(row, idx, "procedimento_solicitado"),
			OriginFacility:     field(row, idx, "unidade_origem"),
			RequestTimestamp:   field(row, idx, "data_solicitacao"),
		})
	}
	return out, nil
}

// ReadFacilityCSV reads the facility registry extract. It accepts both
// the raw export headers (NOME, TIPO_UNIDADE, X, Y, Flg_Ativo, ...) and
// the already-transformed names (nome_unidade, tipo, latitude, ...).
func ReadFacilityCSV(r io.Reader) ([]models.RawFacilityRow, error) {
	header, rows, err := readTable(r)
	if err != nil {
		return nil, err
	}
	idx := columnIndex(header)

	if _, ok := idx["cnes"]; !ok {
		return nil, fmt.Errorf("facility extract is missing the cnes column")
	}

	out := make([]models.RawFacilityRow, 0, len(rows))
	for i, row := range rows {
		out = append(out, models.RawFacilityRow{
			Position:         i,
			Cnes:             field(row, idx, "cnes"),
			Name:             field(row, idx, "nome_unidade", "nome"),
			Type:             field(row, idx, "tipo", "tipo_unidade"),
			TypeABC:          field(row, idx, "tipo_abc"),
			Address:          field(row, idx, "endereco"),
			District:         field(row, idx, "bairro"),
			Municipality:     field(row, idx, "municipio"),
			CareAreaCode:     field(row, idx, "cap"),
			Phone:            field(row, idx, "telefone"),
			Email:            field(row, idx, "email"),
			WeekdayHours:     field(row, idx, "horario_semana"),
			SaturdayHours:    field(row, idx, "horario_sabado"),
			InaugurationDate: field(row, idx, "data_inauguracao"),
			Active:           field(row, idx, "ativo", "flg_ativo"),
			// The raw export maps X to latitude and Y to longitude.
			Latitude:  field(row, idx, "latitude", "x"),
			Longitude: field(row, idx, "longitude", "y"),
		})
	}
	return out, nil
}
