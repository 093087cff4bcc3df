package transform

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/prefeitura-rio/regulacao-etl/pkg/apperrors"
	"github.com/prefeitura-rio/regulacao-etl/pkg/config"
	"github.com/prefeitura-rio/regulacao-etl/pkg/models"
)

// hashLength is the number of hex characters kept from the sha256 digest.
const hashLength = 12

// Anonymizer maps patient names to anonymized tokens under a strategy
// fixed at construction time. The raw name is never forwarded past this
// stage: Apply produces QueueRecords, which carry no name field.
type Anonymizer struct {
	strategy string
}

// NewAnonymizer returns an anonymizer for the given strategy
// (config.StrategyInitials or config.StrategyHash).
func NewAnonymizer(strategy string) (*Anonymizer, error) {
	switch strategy {
	case config.StrategyInitials, config.StrategyHash:
		return &Anonymizer{strategy: strategy}, nil
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownStrategy, strategy)
	}
}

// AnonymizeName derives the anonymized token for a full patient name.
// Empty input yields an empty token; it never fails.
func (a *Anonymizer) AnonymizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if a.strategy == config.StrategyHash {
		sum := sha256.Sum256([]byte(name))
		return hex.EncodeToString(sum[:])[:hashLength]
	}
	return initials(name)
}

// initials produces "M. S." style tokens: upper-cased first letter of the
// first and last whitespace-separated name parts. A single-part name
// yields a single initial.
func initials(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return ""
	}
	first := strings.ToUpper(string([]rune(parts[0])[0]))
	if len(parts) == 1 {
		return first + "."
	}
	last := strings.ToUpper(string([]rune(parts[len(parts)-1])[0]))
	return fmt.Sprintf("%s. %s.", first, last)
}

// Apply converts cleaned candidates into loadable QueueRecords,
// anonymizing the patient name on the way. Output order follows input
// order.
func (a *Anonymizer) Apply(candidates []Candidate) []models.QueueRecord {
	records := make([]models.QueueRecord, 0, len(candidates))
	for _, c := range candidates {
		records = append(records, models.QueueRecord{
			PatientID:          c.PatientID,
			AnonymizedName:     a.AnonymizeName(c.PatientName),
			Urgency:            c.Urgency,
			ProcedureRequested: c.ProcedureRequested,
			OriginFacility:     c.OriginFacility,
			RequestTimestamp:   c.RequestTimestamp,
		})
	}
	return records
}
