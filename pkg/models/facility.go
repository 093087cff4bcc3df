package models

import "time"

// DefaultMunicipality is applied when the facility extract has no
// municipality column or the value is blank. The registry covers a single
// municipality.
const DefaultMunicipality = "Rio de Janeiro"

// RawFacilityRow is one row of the facility registry extract before
// normalization. Coordinate and flag fields are raw strings because the
// upstream export uses locale-variant formats (comma decimals, "Sim"/"Não").
type RawFacilityRow struct {
	Position         int
	Cnes             string
	Name             string
	Type             string
	TypeABC          string
	Address          string
	District         string
	Municipality     string
	CareAreaCode     string
	Phone            string
	Email            string
	WeekdayHours     string
	SaturdayHours    string
	InaugurationDate string
	Active           string
	Latitude         string
	Longitude        string
}

// Facility is a normalized health facility keyed by its CNES code
// (the national registry identifier, unique and immutable). Pointer
// fields are nullable in the store: invalid coordinates are nulled,
// never clamped or zeroed.
type Facility struct {
	Cnes             string     `json:"cnes"`
	Name             string     `json:"nome_unidade"`
	Type             string     `json:"tipo"`
	TypeABC          string     `json:"tipo_abc"`
	Address          string     `json:"endereco"`
	District         string     `json:"bairro"`
	Municipality     string     `json:"municipio"`
	CareAreaCode     string     `json:"cap"`
	Phone            string     `json:"telefone"`
	Email            string     `json:"email"`
	WeekdayHours     string     `json:"horario_semana"`
	SaturdayHours    string     `json:"horario_sabado"`
	InaugurationDate *time.Time `json:"data_inauguracao,omitempty"`
	Active           *bool      `json:"ativo,omitempty"`
	Latitude         *float64   `json:"latitude,omitempty"`
	Longitude        *float64   `json:"longitude,omitempty"`
}
