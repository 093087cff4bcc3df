package transform

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/prefeitura-rio/regulacao-etl/pkg/models"
)

// Geographic bounds for coordinate validation. Values outside are
// invalid and stored as null, never clamped.
const (
	maxLatitude  = 90.0
	maxLongitude = 180.0
)

// Inauguration date layouts accepted in the registry export.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02/01/2006",
}

// FacilityStats reports what the normalizer did with the extract.
type FacilityStats struct {
	Read               int
	Excluded           int
	InvalidCoordinates int
}

// NormalizeFacilities standardizes the raw facility extract into Facility
// rows keyed by CNES. Rows with an empty CNES after digit-stripping are
// excluded (they cannot serve as a join target). Coordinates are parsed
// from comma- or dot-decimal text and nulled when unparseable or outside
// geographic bounds. Municipality defaults when absent from the source.
func NormalizeFacilities(rows []models.RawFacilityRow, logger *zap.Logger) ([]models.Facility, FacilityStats) {
	stats := FacilityStats{Read: len(rows)}
	out := make([]models.Facility, 0, len(rows))
	// Caser is stateful and not safe for concurrent use; scope it to the call.
	nameCaser := cases.Title(language.BrazilianPortuguese)

	for _, row := range rows {
		cnes := digitsOnly(row.Cnes)
		if cnes == "" {
			stats.Excluded++
			logger.Debug("Excluding facility row without cnes",
				zap.Int("position", row.Position),
				zap.String("name", row.Name))
			continue
		}

		lat, latOK := parseCoordinate(row.Latitude, maxLatitude)
		lon, lonOK := parseCoordinate(row.Longitude, maxLongitude)
		if (!latOK && row.Latitude != "") || (!lonOK && row.Longitude != "") {
			stats.InvalidCoordinates++
			logger.Debug("Nulling invalid coordinates",
				zap.String("cnes", cnes),
				zap.String("latitude", row.Latitude),
				zap.String("longitude", row.Longitude))
		}

		municipality := strings.TrimSpace(row.Municipality)
		if municipality == "" {
			municipality = models.DefaultMunicipality
		}

		out = append(out, models.Facility{
			Cnes:             cnes,
			Name:             nameCaser.String(strings.TrimSpace(row.Name)),
			Type:             strings.TrimSpace(row.Type),
			TypeABC:          strings.TrimSpace(row.TypeABC),
			Address:          strings.TrimSpace(row.Address),
			District:         strings.TrimSpace(row.District),
			Municipality:     municipality,
			CareAreaCode:     strings.TrimSpace(row.CareAreaCode),
			Phone:            strings.TrimSpace(row.Phone),
			Email:            strings.TrimSpace(row.Email),
			WeekdayHours:     strings.TrimSpace(row.WeekdayHours),
			SaturdayHours:    strings.TrimSpace(row.SaturdayHours),
			InaugurationDate: parseDate(row.InaugurationDate),
			Active:           parseBool(row.Active),
			Latitude:         lat,
			Longitude:        lon,
		})
	}

	if stats.Excluded > 0 || stats.InvalidCoordinates > 0 {
		logger.Info("Normalized facility extract",
			zap.Int("read", stats.Read),
			zap.Int("excluded", stats.Excluded),
			zap.Int("invalid_coordinates", stats.InvalidCoordinates),
			zap.Int("kept", len(out)))
	}

	return out, stats
}

// digitsOnly strips everything that is not an ASCII digit. CNES codes
// arrive with stray formatting from the export.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parseCoordinate parses a possibly comma-decimal coordinate. Returns
// (nil, false) for unparseable values and values outside [-bound, bound].
func parseCoordinate(s string, bound float64) (*float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return nil, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, false
	}
	if v < -bound || v > bound {
		return nil, false
	}
	return &v, true
}

// parseBool interprets the active flag forms seen in the export
// (1/0, true/false, sim/não, yes/no). Unknown values map to nil.
func parseBool(s string) *bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "1.0", "true", "t", "sim", "s", "yes", "y":
		v := true
		return &v
	case "0", "0.0", "false", "f", "nao", "não", "n", "no":
		v := false
		return &v
	default:
		return nil
	}
}

// parseDate parses an inauguration date, dropping any time component.
// Unparseable values map to nil.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			d := ts.Truncate(24 * time.Hour)
			return &d
		}
	}
	return nil
}
