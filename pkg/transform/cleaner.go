// Package transform implements the cleaning, anonymization, and facility
// normalization passes of the pipeline. Every function here is pure with
// respect to the store: raw rows in, typed rows out, drop counts reported.
package transform

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/prefeitura-rio/regulacao-etl/pkg/models"
)

// Timestamp layouts accepted in data_solicitacao, tried in order.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
}

// Candidate is a cleaned queue row awaiting anonymization. PatientName is
// a processing-time-only field: the anonymizer consumes it and it never
// appears on the persisted record.
type Candidate struct {
	Position           int
	PatientID          int
	PatientName        string
	Urgency            string
	ProcedureRequested string
	OriginFacility     string
	RequestTimestamp   time.Time
}

// CleanStats reports what the cleaner did with the input.
type CleanStats struct {
	Read         int
	Deduplicated int
	Invalid      int
}

type dedupKey struct {
	patientID int
	procedure string
	origin    string
	timestamp int64
}

// CleanQueueRows deduplicates and type-normalizes raw queue rows.
// Two rows are duplicates when (patient id, procedure, origin facility,
// normalized timestamp) match; the first occurrence by input order wins.
// Rows with a missing or non-numeric patient id, or an unparseable
// timestamp, are invalid and dropped. Relative input order is preserved.
func CleanQueueRows(rows []models.RawQueueRow, logger *zap.Logger) ([]Candidate, CleanStats) {
	stats := CleanStats{Read: len(rows)}
	seen := make(map[dedupKey]struct{}, len(rows))
	out := make([]Candidate, 0, len(rows))

	for _, row := range rows {
		patientID, err := strconv.Atoi(strings.TrimSpace(row.PatientID))
		if err != nil {
			stats.Invalid++
			logger.Debug("Dropping row with missing or invalid patient id",
				zap.Int("position", row.Position))
			continue
		}

		ts, ok := ParseTimestamp(row.RequestTimestamp)
		if !ok {
			stats.Invalid++
			logger.Debug("Dropping row with unparseable timestamp",
				zap.Int("position", row.Position),
				zap.String("value", row.RequestTimestamp))
			continue
		}

		key := dedupKey{
			patientID: patientID,
			procedure: strings.TrimSpace(row.ProcedureRequested),
			origin:    strings.TrimSpace(row.OriginFacility),
			timestamp: ts.Unix(),
		}
		if _, dup := seen[key]; dup {
			stats.Deduplicated++
			continue
		}
		seen[key] = struct{}{}

		out = append(out, Candidate{
			Position:           row.Position,
			PatientID:          patientID,
			PatientName:        strings.TrimSpace(row.PatientName),
			Urgency:            strings.TrimSpace(row.Urgency),
			ProcedureRequested: key.procedure,
			OriginFacility:     key.origin,
			RequestTimestamp:   ts,
		})
	}

	if stats.Deduplicated > 0 || stats.Invalid > 0 {
		logger.Info("Cleaned queue rows",
			zap.Int("read", stats.Read),
			zap.Int("deduplicated", stats.Deduplicated),
			zap.Int("invalid", stats.Invalid),
			zap.Int("kept", len(out)))
	}

	return out, stats
}

// ParseTimestamp parses a request timestamp in any of the accepted
// layouts. The source carries naive local date-times, so parsing is done
// without a timezone.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
