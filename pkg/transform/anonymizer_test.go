package transform

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prefeitura-rio/regulacao-etl/pkg/apperrors"
	"github.com/prefeitura-rio/regulacao-etl/pkg/config"
)

func TestNewAnonymizer_UnknownStrategy(t *testing.T) {
	_, err := NewAnonymizer("rot13")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnknownStrategy)
}

func TestAnonymizeName_Initials(t *testing.T) {
	a, err := NewAnonymizer(config.StrategyInitials)
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "two token name",
			input:    "Maria Silva",
			expected: "M. S.",
		},
		{
			name:     "middle names use first and last tokens only",
			input:    "Joao Silva Oliveira",
			expected: "J. O.",
		},
		{
			name:     "single token",
			input:    "Maria",
			expected: "M.",
		},
		{
			name:     "lowercase input is upper-cased",
			input:    "maria silva",
			expected: "M. S.",
		},
		{
			name:     "surrounding whitespace",
			input:    "  Maria Silva  ",
			expected: "M. S.",
		},
		{
			name:     "empty name",
			input:    "",
			expected: "",
		},
		{
			name:     "whitespace only",
			input:    "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, a.AnonymizeName(tt.input))
		})
	}
}

func TestAnonymizeName_Hash(t *testing.T) {
	a, err := NewAnonymizer(config.StrategyHash)
	require.NoError(t, err)

	t.Run("deterministic", func(t *testing.T) {
		first := a.AnonymizeName("Maria Silva")
		second := a.AnonymizeName("Maria Silva")
		assert.Equal(t, first, second)
		assert.Len(t, first, hashLength)
	})

	t.Run("no recoverable fragment", func(t *testing.T) {
		token := a.AnonymizeName("Maria Silva")
		assert.NotContains(t, token, "Maria")
		assert.NotContains(t, token, "Silva")
	})

	t.Run("empty name", func(t *testing.T) {
		assert.Equal(t, "", a.AnonymizeName(""))
	})

	t.Run("no collisions over a large sample", func(t *testing.T) {
		seen := make(map[string]string, 10000)
		for i := 0; i < 10000; i++ {
			name := "Paciente Numero " + string(rune('A'+i%26)) + " " + strconv.Itoa(i)
			token := a.AnonymizeName(name)
			if prev, ok := seen[token]; ok {
				t.Fatalf("collision: %q and %q both map to %q", prev, name, token)
			}
			seen[token] = name
		}
	})
}

func TestAnonymizer_Apply(t *testing.T) {
	a, err := NewAnonymizer(config.StrategyInitials)
	require.NoError(t, err)

	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	candidates := []Candidate{
		{
			PatientID:          100,
			PatientName:        "Maria Silva",
			Urgency:            "Vermelho",
			ProcedureRequested: "Vaga de UTI Adulto",
			OriginFacility:     "UPA Madureira",
			RequestTimestamp:   ts,
		},
	}

	records := a.Apply(candidates)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, 100, rec.PatientID)
	assert.Equal(t, "M. S.", rec.AnonymizedName)
	assert.Equal(t, "Vermelho", rec.Urgency)
	assert.Equal(t, "Vaga de UTI Adulto", rec.ProcedureRequested)
	assert.Equal(t, "UPA Madureira", rec.OriginFacility)
	assert.True(t, rec.RequestTimestamp.Equal(ts))
}
