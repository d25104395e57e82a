package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned when a job cannot be found in the ledger
	ErrJobNotFound = errors.New("job not found")

	// ErrScopeNotFound is returned when a submission names an unknown county
	ErrScopeNotFound = errors.New("county scope not found")
)

// InvalidStateError is returned when a lifecycle transition is attempted
// against a job that is not in an admissible prior state. Losing a claim
// race surfaces as this error too: the conditional update touches zero rows.
type InvalidStateError struct {
	JobID  string
	Status Status
	Op     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s job %s in status %s", e.Op, e.JobID, e.Status)
}

// ValidationError is returned when submission input is malformed. Rejected
// submissions never create a ledger row.
type ValidationError struct {
	Detail string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return "invalid job submission: " + e.Detail + ": " + e.Err.Error()
	}
	return "invalid job submission: " + e.Detail
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
