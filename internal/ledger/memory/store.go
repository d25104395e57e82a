// Package memory provides an in-process ledger store. It backs unit tests
// and local development where a PostgreSQL instance is not available.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bsvalues/terrafusion-sync/internal/ledger"
)

// Store keeps job records in a mutex-guarded map. Transition methods mimic
// the conditional-update semantics of the PostgreSQL store.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]ledger.Job
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]ledger.Job)}
}

func (s *Store) CreateJob(_ context.Context, job *ledger.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.JobID]; exists {
		return fmt.Errorf("job %s already exists", job.JobID)
	}

	s.jobs[job.JobID] = cloneJob(*job)
	return nil
}

func (s *Store) GetJob(_ context.Context, jobID string) (*ledger.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, ledger.ErrJobNotFound
	}

	out := cloneJob(job)
	return &out, nil
}

func (s *Store) ListJobs(_ context.Context, filter ledger.JobFilter) ([]ledger.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var jobs []ledger.Job
	for _, job := range s.jobs {
		if filter.CountyID != "" && job.CountyID != filter.CountyID {
			continue
		}
		if filter.JobType != "" && job.JobType != filter.JobType {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		if filter.Cursor != nil && !beforeCursor(job, filter.Cursor) {
			continue
		}
		jobs = append(jobs, cloneJob(job))
	}

	// Newest first, job_id as tiebreaker, matching the SQL ordering.
	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
		}
		return jobs[i].JobID > jobs[j].JobID
	})

	if filter.PageSize > 0 && len(jobs) > filter.PageSize+1 {
		jobs = jobs[:filter.PageSize+1]
	}

	return jobs, nil
}

func (s *Store) MarkRunning(_ context.Context, jobID, message string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok || job.Status != ledger.StatusPending {
		return false, nil
	}

	job.Status = ledger.StatusRunning
	job.Message = message
	job.StartedAt = &at
	s.jobs[jobID] = job
	return true, nil
}

func (s *Store) MarkCompleted(_ context.Context, jobID, resultLocation string, resultSummary json.RawMessage, message string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok || job.Status != ledger.StatusRunning {
		return false, nil
	}

	job.Status = ledger.StatusCompleted
	job.Message = message
	job.ResultLocation = &resultLocation
	job.ResultSummary = append(json.RawMessage(nil), resultSummary...)
	job.CompletedAt = &at
	s.jobs[jobID] = job
	return true, nil
}

func (s *Store) MarkFailed(_ context.Context, jobID, message string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok || (job.Status != ledger.StatusPending && job.Status != ledger.StatusRunning) {
		return false, nil
	}

	job.Status = ledger.StatusFailed
	job.Message = message
	job.CompletedAt = &at
	s.jobs[jobID] = job
	return true, nil
}

// beforeCursor reports whether the job sorts strictly after the cursor
// position in the newest-first ordering.
func beforeCursor(job ledger.Job, cursor *ledger.JobCursor) bool {
	if job.CreatedAt.Before(cursor.CreatedAt) {
		return true
	}
	return job.CreatedAt.Equal(cursor.CreatedAt) && job.JobID < cursor.JobID
}

func cloneJob(job ledger.Job) ledger.Job {
	job.Parameters = append(json.RawMessage(nil), job.Parameters...)
	if job.ResultSummary != nil {
		job.ResultSummary = append(json.RawMessage(nil), job.ResultSummary...)
	}
	if job.StartedAt != nil {
		t := *job.StartedAt
		job.StartedAt = &t
	}
	if job.CompletedAt != nil {
		t := *job.CompletedAt
		job.CompletedAt = &t
	}
	if job.ResultLocation != nil {
		loc := *job.ResultLocation
		job.ResultLocation = &loc
	}
	return job
}
