package models

import (
	"time"

	"github.com/google/uuid"
)

// Run status values recorded in etl_runs.
const (
	RunStatusInProgress = "in_progress"
	RunStatusSuccess    = "success"
	RunStatusFailed     = "failed"
)

// Run kinds distinguish the two pipeline flows.
const (
	RunKindQueue      = "queue"
	RunKindFacilities = "facilities"
)

// RunSummary is the outcome of one pipeline run. Read counts every row in
// the source; Deduplicated and Invalid count rows dropped by the cleaner;
// Loaded counts rows persisted. Read = Deduplicated + Invalid + Loaded.
type RunSummary struct {
	RunID        uuid.UUID
	Kind         string
	Source       string
	Read         int
	Deduplicated int
	Invalid      int
	Loaded       int
	Status       string
	Error        string
	StartedAt    time.Time
	FinishedAt   time.Time
}
