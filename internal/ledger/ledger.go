package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsvalues/terrafusion-sync/internal/audit"
	"github.com/google/uuid"
)

// Ledger coordinates the job lifecycle state machine over a Store:
//
//	PENDING -> RUNNING -> {COMPLETED, FAILED}
//	PENDING -> FAILED (submission-time rejection)
//
// Every transition is a single conditional update; a transition against a
// job in the wrong state fails with InvalidStateError and leaves the row
// untouched. COMPLETED and FAILED are terminal.
type Ledger struct {
	store  Store
	scopes ScopeResolver
	sink   audit.Sink
	logger *slog.Logger
	now    func() time.Time
}

// Config holds the dependencies of a Ledger.
type Config struct {
	Store  Store
	Scopes ScopeResolver
	Sink   audit.Sink
	Logger *slog.Logger
}

// New creates a Ledger. Sink and Logger may be nil.
func New(cfg *Config) *Ledger {
	sink := cfg.Sink
	if sink == nil {
		sink = audit.NopSink{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Ledger{
		store:  cfg.Store,
		scopes: cfg.Scopes,
		sink:   sink,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Submit validates the submission and creates a PENDING job record.
// Rejected submissions never create a row.
func (l *Ledger) Submit(ctx context.Context, jobType JobType, countyID string, params json.RawMessage) (*Job, error) {
	if err := ValidateParams(jobType, params); err != nil {
		l.appendEvent(ctx, audit.Event{
			EventType: audit.EventJobRejected,
			JobType:   string(jobType),
			CountyID:  countyID,
			Detail:    err.Error(),
		})
		return nil, err
	}

	if err := l.scopes.ResolveScope(ctx, countyID); err != nil {
		return nil, fmt.Errorf("scope %q: %w", countyID, err)
	}

	job := &Job{
		JobID:      uuid.New().String(),
		JobType:    jobType,
		CountyID:   countyID,
		Status:     StatusPending,
		Parameters: params,
		Message:    "queued for processing",
		CreatedAt:  l.now(),
	}

	if err := l.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to submit job: %w", err)
	}

	l.logger.Info("Job submitted",
		slog.String("job_id", job.JobID),
		slog.String("job_type", string(jobType)),
		slog.String("county_id", countyID),
	)

	l.appendJobEvent(ctx, audit.EventJobSubmitted, job, job.Message)

	return job, nil
}

// Start transitions a PENDING job to RUNNING and returns the claimed job.
// Exactly one of any concurrent Start calls for the same job succeeds.
func (l *Ledger) Start(ctx context.Context, jobID string) (*Job, error) {
	ok, err := l.store.MarkRunning(ctx, jobID, "running", l.now())
	if err != nil {
		return nil, fmt.Errorf("failed to start job %s: %w", jobID, err)
	}
	if !ok {
		return nil, l.transitionError(ctx, "start", jobID)
	}

	job, err := l.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load started job %s: %w", jobID, err)
	}

	l.logger.Info("Job started",
		slog.String("job_id", job.JobID),
		slog.String("job_type", string(job.JobType)),
	)

	l.appendJobEvent(ctx, audit.EventJobStarted, job, job.Message)

	return job, nil
}

// Complete transitions a RUNNING job to COMPLETED, recording where the
// output landed and a structured summary of it.
func (l *Ledger) Complete(ctx context.Context, jobID, resultLocation string, resultSummary json.RawMessage) error {
	ok, err := l.store.MarkCompleted(ctx, jobID, resultLocation, resultSummary, "completed", l.now())
	if err != nil {
		return fmt.Errorf("failed to complete job %s: %w", jobID, err)
	}
	if !ok {
		return l.transitionError(ctx, "complete", jobID)
	}

	l.logger.Info("Job completed",
		slog.String("job_id", jobID),
		slog.String("result_location", resultLocation),
	)

	if job, err := l.store.GetJob(ctx, jobID); err == nil {
		l.appendJobEvent(ctx, audit.EventJobCompleted, job, resultLocation)
	}

	return nil
}

// Fail transitions a RUNNING job to FAILED. PENDING jobs may also be failed
// directly, covering poison-pill detection at submission time.
func (l *Ledger) Fail(ctx context.Context, jobID, message string) error {
	ok, err := l.store.MarkFailed(ctx, jobID, message, l.now())
	if err != nil {
		return fmt.Errorf("failed to fail job %s: %w", jobID, err)
	}
	if !ok {
		return l.transitionError(ctx, "fail", jobID)
	}

	l.logger.Warn("Job failed",
		slog.String("job_id", jobID),
		slog.String("message", message),
	)

	if job, err := l.store.GetJob(ctx, jobID); err == nil {
		l.appendJobEvent(ctx, audit.EventJobFailed, job, message)
	}

	return nil
}

// Get returns the job with the given id.
func (l *Ledger) Get(ctx context.Context, jobID string) (*Job, error) {
	return l.store.GetJob(ctx, jobID)
}

// List enumerates jobs matching the filter, newest first. When PageSize is
// positive, up to PageSize+1 rows come back so the caller can detect more
// pages and build a resume cursor.
func (l *Ledger) List(ctx context.Context, filter JobFilter) ([]Job, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, &ValidationError{Detail: "unknown status " + string(filter.Status)}
	}
	if filter.JobType != "" && !filter.JobType.Valid() {
		return nil, &ValidationError{Detail: "unknown job type " + string(filter.JobType)}
	}

	return l.store.ListJobs(ctx, filter)
}

// transitionError explains why a conditional update touched zero rows:
// either the job does not exist, or it is in an inadmissible state.
func (l *Ledger) transitionError(ctx context.Context, op, jobID string) error {
	job, err := l.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	return &InvalidStateError{JobID: jobID, Status: job.Status, Op: op}
}

func (l *Ledger) appendJobEvent(ctx context.Context, eventType string, job *Job, detail string) {
	l.appendEvent(ctx, audit.Event{
		EventType: eventType,
		JobID:     job.JobID,
		JobType:   string(job.JobType),
		CountyID:  job.CountyID,
		Detail:    detail,
	})
}

// appendEvent writes to the activity log best-effort. The log is advisory;
// a sink failure never fails the transition that triggered it.
func (l *Ledger) appendEvent(ctx context.Context, ev audit.Event) {
	ev.CreatedAt = l.now()
	if err := l.sink.Append(ctx, ev); err != nil {
		l.logger.Warn("Failed to append audit event",
			slog.String("event_type", ev.EventType),
			slog.String("job_id", ev.JobID),
			slog.String("error", err.Error()),
		)
	}
}
