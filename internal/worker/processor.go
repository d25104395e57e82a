package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bsvalues/terrafusion-sync/internal/ledger"
)

// processJob drives one job through its lifecycle: claim it via the ledger
// (PENDING to RUNNING is a compare-and-swap, so at most one worker wins),
// run the executor for its type, then record the terminal state.
func (w *Worker) processJob(ctx context.Context, msg *jobMessage) error {
	job, err := w.ledger.Start(ctx, msg.JobID)
	if err != nil {
		var stateErr *ledger.InvalidStateError
		if errors.As(err, &stateErr) {
			w.logger.Warn("Job not claimable, skipping",
				slog.String("job_id", msg.JobID),
				slog.String("status", string(stateErr.Status)),
			)
			return err
		}
		if errors.Is(err, ledger.ErrJobNotFound) {
			w.logger.Warn("Job message references unknown job",
				slog.String("job_id", msg.JobID),
			)
			return err
		}
		// Storage errors may be transient; let the message come back.
		return NewRetryableError(fmt.Errorf("failed to claim job: %w", err))
	}

	executor, ok := w.executors.Get(job.JobType)
	if !ok {
		failMsg := fmt.Sprintf("no executor registered for job type %s", job.JobType)
		if failErr := w.ledger.Fail(ctx, job.JobID, failMsg); failErr != nil {
			w.logger.Error("Failed to mark unexecutable job as failed",
				slog.String("job_id", job.JobID),
				slog.String("error", failErr.Error()),
			)
		}
		return fmt.Errorf("%s", failMsg)
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	result, err := executor.Execute(jobCtx, job)
	if err != nil {
		w.logger.Error("Job execution failed",
			slog.String("job_id", job.JobID),
			slog.String("job_type", string(job.JobType)),
			slog.String("error", err.Error()),
		)

		if failErr := w.ledger.Fail(ctx, job.JobID, err.Error()); failErr != nil {
			w.logger.Error("Failed to update job status to FAILED",
				slog.String("job_id", job.JobID),
				slog.String("error", failErr.Error()),
			)
		}

		// The job is terminal now; requeueing the message would only
		// produce claim failures.
		return fmt.Errorf("job execution failed: %w", err)
	}

	summary, err := json.Marshal(result.Summary)
	if err != nil {
		if failErr := w.ledger.Fail(ctx, job.JobID, "executor produced unencodable result summary"); failErr != nil {
			w.logger.Error("Failed to update job status to FAILED",
				slog.String("job_id", job.JobID),
				slog.String("error", failErr.Error()),
			)
		}
		return fmt.Errorf("failed to encode result summary: %w", err)
	}

	if err := w.ledger.Complete(ctx, job.JobID, result.Location, summary); err != nil {
		var stateErr *ledger.InvalidStateError
		if errors.As(err, &stateErr) {
			return err
		}
		return NewRetryableError(fmt.Errorf("failed to complete job: %w", err))
	}

	w.logger.Info("Job completed",
		slog.String("job_id", job.JobID),
		slog.String("job_type", string(job.JobType)),
		slog.String("result_location", result.Location),
	)

	return nil
}
