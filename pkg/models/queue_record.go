package models

import "time"

// Urgency values observed in the referral queue (Manchester triage colors).
// The source column is free-form text; these constants cover the expected
// vocabulary but unknown values are passed through untouched.
const (
	UrgencyGreen  = "Verde"
	UrgencyYellow = "Amarelo"
	UrgencyOrange = "Laranja"
	UrgencyRed    = "Vermelho"
)

// RawQueueRow is one row of the referral-queue extract as read from CSV,
// before cleaning. All fields are raw strings except Position, which is
// the zero-based input position used for stable ordering and error
// reporting. PatientName exists only at this stage; it is consumed by the
// anonymizer and never reaches the typed record.
type RawQueueRow struct {
	Position           int
	PatientID          string
	PatientName        string
	Urgency            string
	ProcedureRequested string
	OriginFacility     string
	RequestTimestamp   string
}

// QueueRecord is a cleaned, anonymized referral-queue entry ready for
// loading into fila_regulacao. The surrogate id is assigned by the store.
type QueueRecord struct {
	PatientID          int       `json:"id_paciente"`
	AnonymizedName     string    `json:"nome_anonimo"`
	Urgency            string    `json:"gravidade"`
	ProcedureRequested string    `json:"procedimento_solicitado"`
	OriginFacility     string    `json:"unidade_origem"`
	RequestTimestamp   time.Time `json:"data_solicitacao"`
}
