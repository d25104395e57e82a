// Package postgres persists the job ledger in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsvalues/terrafusion-sync/internal/ledger"
	"github.com/jmoiron/sqlx"
)

// Store implements ledger.Store over a jobs table. Lifecycle transitions
// are conditional updates keyed on the expected prior status; zero rows
// affected means the job was absent or in another state.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store on an open database handle.
func NewStore(db *sqlx.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) CreateJob(ctx context.Context, job *ledger.Job) error {
	query := `
		INSERT INTO jobs (
			job_id, job_type, county_id, status,
			parameters, message, created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7
		)
	`

	_, err := s.db.ExecContext(ctx, query,
		job.JobID,
		job.JobType,
		job.CountyID,
		job.Status,
		[]byte(job.Parameters),
		job.Message,
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

func (s *Store) GetJob(ctx context.Context, jobID string) (*ledger.Job, error) {
	query := `
		SELECT
			job_id, job_type, county_id, status,
			parameters, message, result_location, result_summary,
			created_at, started_at, completed_at
		FROM jobs
		WHERE job_id = $1
	`

	var job ledger.Job
	err := s.db.GetContext(ctx, &job, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

func (s *Store) ListJobs(ctx context.Context, filter ledger.JobFilter) ([]ledger.Job, error) {
	query := `
		SELECT
			job_id, job_type, county_id, status,
			parameters, message, result_location, result_summary,
			created_at, started_at, completed_at
		FROM jobs
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filter.CountyID != "" {
		query += fmt.Sprintf(" AND county_id = $%d", argIdx)
		args = append(args, filter.CountyID)
		argIdx++
	}

	if filter.JobType != "" {
		query += fmt.Sprintf(" AND job_type = $%d", argIdx)
		args = append(args, filter.JobType)
		argIdx++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, job_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	// Order matches the keyset cursor so pagination never skips rows.
	query += " ORDER BY created_at DESC, job_id DESC"

	if filter.PageSize > 0 {
		// One extra row so the caller can tell whether more pages exist.
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.PageSize+1)
	}

	var jobs []ledger.Job
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

func (s *Store) MarkRunning(ctx context.Context, jobID, message string, at time.Time) (bool, error) {
	query := `
		UPDATE jobs
		SET status = $1,
		    message = $2,
		    started_at = $3
		WHERE job_id = $4
		  AND status = $5
	`

	updated, err := s.transition(ctx, query, ledger.StatusRunning, message, at, jobID, ledger.StatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to mark job running: %w", err)
	}

	if updated {
		s.logger.Info("Job claimed",
			slog.String("job_id", jobID),
		)
	}

	return updated, nil
}

func (s *Store) MarkCompleted(ctx context.Context, jobID, resultLocation string, resultSummary json.RawMessage, message string, at time.Time) (bool, error) {
	query := `
		UPDATE jobs
		SET status = $1,
		    message = $2,
		    result_location = $3,
		    result_summary = $4,
		    completed_at = $5
		WHERE job_id = $6
		  AND status = $7
	`

	var summary []byte
	if resultSummary != nil {
		summary = []byte(resultSummary)
	}

	result, err := s.db.ExecContext(ctx, query,
		ledger.StatusCompleted, message, resultLocation, summary, at, jobID, ledger.StatusRunning,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark job completed: %w", err)
	}

	return rowsAffected(result)
}

func (s *Store) MarkFailed(ctx context.Context, jobID, message string, at time.Time) (bool, error) {
	// PENDING is admissible too: submission-time poison pills fail
	// without ever running.
	query := `
		UPDATE jobs
		SET status = $1,
		    message = $2,
		    completed_at = $3
		WHERE job_id = $4
		  AND status IN ($5, $6)
	`

	result, err := s.db.ExecContext(ctx, query,
		ledger.StatusFailed, message, at, jobID, ledger.StatusPending, ledger.StatusRunning,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark job failed: %w", err)
	}

	return rowsAffected(result)
}

func (s *Store) transition(ctx context.Context, query string, args ...interface{}) (bool, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return rowsAffected(result)
}

func rowsAffected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}
