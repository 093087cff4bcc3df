package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadQueueCSV(t *testing.T) {
	input := strings.Join([]string{
		"id_paciente,nome_paciente,gravidade,procedimento_solicitado,unidade_origem,data_solicitacao",
		"12345,Maria Silva,Vermelho,Vaga de UTI Adulto,UPA Madureira,2024-03-01 10:30:00",
		"67890,Joao Souza,Verde,Tomografia de Torax,CMS Fazenda Botafogo,2024-03-02 08:00:00",
	}, "\n")

	rows, err := ReadQueueCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 0, rows[0].Position)
	assert.Equal(t, "12345", rows[0].PatientID)
	assert.Equal(t, "Maria Silva", rows[0].PatientName)
	assert.Equal(t, "Vermelho", rows[0].Urgency)
	assert.Equal(t, "Vaga de UTI Adulto", rows[0].ProcedureRequested)
	assert.Equal(t, "UPA Madureira", rows[0].OriginFacility)
	assert.Equal(t, "2024-03-01 10:30:00", rows[0].RequestTimestamp)
	assert.Equal(t, 1, rows[1].Position)
}

func TestReadQueueCSV_ShuffledColumns(t *testing.T) {
	input := strings.Join([]string{
		"data_solicitacao,id_paciente,gravidade,nome_paciente,unidade_origem,procedimento_solicitado",
		"2024-03-01,111,Amarelo,Ana Costa,Hospital Souza Aguiar,Parecer Cardiologia",
	}, "\n")

	rows, err := ReadQueueCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "111", rows[0].PatientID)
	assert.Equal(t, "Ana Costa", rows[0].PatientName)
	assert.Equal(t, "Parecer Cardiologia", rows[0].ProcedureRequested)
}

func TestReadQueueCSV_MissingIDColumn(t *testing.T) {
	input := "nome_paciente,gravidade\nMaria,Verde\n"
	_, err := ReadQueueCSV(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id_paciente")
}

func TestReadQueueCSV_EmptyInput(t *testing.T) {
	_, err := ReadQueueCSV(strings.NewReader(""))
	require.Error(t, err)
}

func TestReadFacilityCSV_RawExportHeaders(t *testing.T) {
	// Raw export: semicolon-delimited, UTF-8 BOM, X/Y coordinate columns,
	// comma decimal separators.
	input := "\xEF\xBB\xBF" + strings.Join([]string{
		"CNES;NOME;TIPO_UNIDADE;ENDERECO;BAIRRO;CAP;X;Y;Flg_Ativo;DATA_INAUGURACAO",
		"2269481;Hospital Municipal Souza Aguiar;Hospital;Praca da Republica 111;Centro;1.0;-22,905;-43,188;1;1907-05-30",
	}, "\n")

	rows, err := ReadFacilityCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "2269481", row.Cnes)
	assert.Equal(t, "Hospital Municipal Souza Aguiar", row.Name)
	assert.Equal(t, "Hospital", row.Type)
	assert.Equal(t, "Centro", row.District)
	assert.Equal(t, "-22,905", row.Latitude)
	assert.Equal(t, "-43,188", row.Longitude)
	assert.Equal(t, "1", row.Active)
	assert.Equal(t, "1907-05-30", row.InaugurationDate)
}

func TestReadFacilityCSV_TransformedHeaders(t *testing.T) {
	input := strings.Join([]string{
		"cnes,nome_unidade,tipo,latitude,longitude,ativo,municipio",
		"0001,CMS Teste,Centro de Saude,-22.9,-43.2,true,Rio de Janeiro",
	}, "\n")

	rows, err := ReadFacilityCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "0001", rows[0].Cnes)
	assert.Equal(t, "CMS Teste", rows[0].Name)
	assert.Equal(t, "-22.9", rows[0].Latitude)
	assert.Equal(t, "Rio de Janeiro", rows[0].Municipality)
}

func TestReadFacilityCSV_MissingCnesColumn(t *testing.T) {
	input := "nome_unidade,tipo\nCMS Teste,Centro de Saude\n"
	_, err := ReadFacilityCSV(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cnes")
}
