package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNoDatabaseURL   = errors.New("DATABASE_URL not set")
	ErrUnknownStrategy = errors.New("unknown anonymization strategy")
)

// Pipeline stages used to tag fatal errors.
const (
	StageExtract = "extract"
	StageClean   = "clean"
	StageSchema  = "schema"
	StageLoad    = "load"
)

// StageError marks a fatal pipeline failure with the stage it occurred in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with the stage at which it occurred.
func NewStageError(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

// BatchInsertError reports a constraint or type failure inside a batch
// load call. The whole call is rolled back; Index is the zero-based
// position of the offending row within the batch.
type BatchInsertError struct {
	Table      string
	Index      int
	Constraint string
	Err        error
}

func (e *BatchInsertError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("batch insert into %s failed at row %d (constraint %s): %v",
			e.Table, e.Index, e.Constraint, e.Err)
	}
	return fmt.Sprintf("batch insert into %s failed at row %d: %v", e.Table, e.Index, e.Err)
}

func (e *BatchInsertError) Unwrap() error {
	return e.Err
}
