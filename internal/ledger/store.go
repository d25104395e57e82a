package ledger

import (
	"context"
	"encoding/json"
	"time"
)

// JobFilter selects jobs for enumeration. Zero-value fields are not applied.
type JobFilter struct {
	CountyID string
	JobType  JobType
	Status   Status
	PageSize int
	Cursor   *JobCursor
}

// JobCursor marks a position in the (created_at DESC, job_id DESC) ordering
// so that enumeration can resume where a previous page stopped.
type JobCursor struct {
	CreatedAt time.Time
	JobID     string
}

// Store persists job records. Transition methods are conditional updates:
// they apply atomically when the job is in the admissible prior state and
// report false otherwise, without touching the row.
type Store interface {
	// CreateJob inserts a new PENDING job record.
	CreateJob(ctx context.Context, job *Job) error

	// GetJob returns the job with the given id, or ErrJobNotFound.
	GetJob(ctx context.Context, jobID string) (*Job, error)

	// ListJobs returns jobs matching the filter, newest first. When
	// PageSize is positive, up to PageSize+1 rows are returned so the
	// caller can detect whether more pages exist.
	ListJobs(ctx context.Context, filter JobFilter) ([]Job, error)

	// MarkRunning flips PENDING to RUNNING, stamping started_at.
	MarkRunning(ctx context.Context, jobID, message string, at time.Time) (bool, error)

	// MarkCompleted flips RUNNING to COMPLETED, stamping completed_at and
	// storing the result location and summary.
	MarkCompleted(ctx context.Context, jobID, resultLocation string, resultSummary json.RawMessage, message string, at time.Time) (bool, error)

	// MarkFailed flips PENDING or RUNNING to FAILED, stamping completed_at.
	MarkFailed(ctx context.Context, jobID, message string, at time.Time) (bool, error)
}
