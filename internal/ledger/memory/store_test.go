package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bsvalues/terrafusion-sync/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedJob(t *testing.T, s *Store, jobID string, createdAt time.Time) {
	t.Helper()

	err := s.CreateJob(context.Background(), &ledger.Job{
		JobID:      jobID,
		JobType:    ledger.JobTypeExport,
		CountyID:   "benton-wa",
		Status:     ledger.StatusPending,
		Parameters: json.RawMessage(`{"format":"geojson"}`),
		CreatedAt:  createdAt,
	})
	require.NoError(t, err)
}

func TestStore_CreateJob_Duplicate(t *testing.T) {
	s := NewStore()
	now := time.Now().UTC()

	seedJob(t, s, "job-1", now)

	err := s.CreateJob(context.Background(), &ledger.Job{JobID: "job-1", CreatedAt: now})
	assert.Error(t, err)
}

func TestStore_Transitions(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("mark running only claims pending", func(t *testing.T) {
		s := NewStore()
		seedJob(t, s, "job-1", now)

		ok, err := s.MarkRunning(ctx, "job-1", "running", now)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.MarkRunning(ctx, "job-1", "running", now)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = s.MarkRunning(ctx, "missing", "running", now)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("mark completed requires running", func(t *testing.T) {
		s := NewStore()
		seedJob(t, s, "job-1", now)

		ok, err := s.MarkCompleted(ctx, "job-1", "exports/x", nil, "completed", now)
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = s.MarkRunning(ctx, "job-1", "running", now)
		require.NoError(t, err)

		ok, err = s.MarkCompleted(ctx, "job-1", "exports/x", json.RawMessage(`{"records":1}`), "completed", now)
		require.NoError(t, err)
		assert.True(t, ok)

		job, err := s.GetJob(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, ledger.StatusCompleted, job.Status)
		require.NotNil(t, job.ResultLocation)
		assert.Equal(t, "exports/x", *job.ResultLocation)
	})

	t.Run("mark failed from pending or running", func(t *testing.T) {
		s := NewStore()
		seedJob(t, s, "pending-job", now)
		seedJob(t, s, "running-job", now)

		_, err := s.MarkRunning(ctx, "running-job", "running", now)
		require.NoError(t, err)

		ok, err := s.MarkFailed(ctx, "pending-job", "poison pill", now)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.MarkFailed(ctx, "running-job", "upstream timeout", now)
		require.NoError(t, err)
		assert.True(t, ok)

		// Terminal rows reject further transitions.
		ok, err = s.MarkFailed(ctx, "running-job", "again", now)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestStore_GetJob_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedJob(t, s, "job-1", time.Now().UTC())

	job, err := s.GetJob(ctx, "job-1")
	require.NoError(t, err)

	// Mutating the returned record must not leak back into the store.
	job.Status = ledger.StatusCompleted
	job.Parameters[0] = 'X'

	fresh, err := s.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPending, fresh.Status)
	assert.JSONEq(t, `{"format":"geojson"}`, string(fresh.Parameters))
}

func TestStore_ListJobs_CursorTiebreak(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	// Same created_at: ordering falls back to job_id descending.
	at := time.Now().UTC()
	seedJob(t, s, "job-a", at)
	seedJob(t, s, "job-b", at)
	seedJob(t, s, "job-c", at)

	jobs, err := s.ListJobs(ctx, ledger.JobFilter{})
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, "job-c", jobs[0].JobID)
	assert.Equal(t, "job-b", jobs[1].JobID)
	assert.Equal(t, "job-a", jobs[2].JobID)

	rest, err := s.ListJobs(ctx, ledger.JobFilter{
		Cursor: &ledger.JobCursor{CreatedAt: at, JobID: "job-b"},
	})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "job-a", rest[0].JobID)
}
