package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/bsvalues/terrafusion-sync/internal/ledger"
	"github.com/bsvalues/terrafusion-sync/internal/ledger/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	result *Result
	err    error
	calls  int
}

func (e *fakeExecutor) Execute(_ context.Context, _ *ledger.Job) (*Result, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func newTestWorker(t *testing.T, executors *ExecutorRegistry) (*Worker, *ledger.Ledger) {
	t.Helper()

	l := ledger.New(&ledger.Config{
		Store:  memory.NewStore(),
		Scopes: ledger.NewStaticScopes("benton-wa"),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	w := NewWorker(&Config{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Ledger:      l,
		Executors:   executors,
		Concurrency: 1,
		JobTimeout:  time.Second,
	})

	return w, l
}

func submitJob(t *testing.T, l *ledger.Ledger) *ledger.Job {
	t.Helper()

	job, err := l.Submit(context.Background(), ledger.JobTypeExport, "benton-wa",
		json.RawMessage(`{"format":"geojson"}`))
	require.NoError(t, err)
	return job
}

func TestWorker_ProcessJob(t *testing.T) {
	ctx := context.Background()

	exec := &fakeExecutor{result: &Result{
		Location: "exports/benton-wa/parcels.geojson",
		Summary:  map[string]interface{}{"records": 42},
	}}
	registry := NewExecutorRegistry()
	registry.Register(ledger.JobTypeExport, exec)

	w, l := newTestWorker(t, registry)
	job := submitJob(t, l)

	err := w.processJob(ctx, &jobMessage{JobID: job.JobID})
	require.NoError(t, err)
	assert.Equal(t, 1, exec.calls)

	done, err := l.Get(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCompleted, done.Status)
	require.NotNil(t, done.ResultLocation)
	assert.Equal(t, "exports/benton-wa/parcels.geojson", *done.ResultLocation)
	assert.JSONEq(t, `{"records":42}`, string(done.ResultSummary))
	require.NotNil(t, done.StartedAt)
	require.NotNil(t, done.CompletedAt)
}

func TestWorker_ProcessJob_ExecutionFailure(t *testing.T) {
	ctx := context.Background()

	registry := NewExecutorRegistry()
	registry.Register(ledger.JobTypeExport, &fakeExecutor{err: errors.New("upstream timeout")})

	w, l := newTestWorker(t, registry)
	job := submitJob(t, l)

	err := w.processJob(ctx, &jobMessage{JobID: job.JobID})
	require.Error(t, err)
	// The job is terminal; a requeue would only produce claim failures.
	assert.False(t, w.shouldRequeueJob(err))

	failed, getErr := l.Get(ctx, job.JobID)
	require.NoError(t, getErr)
	assert.Equal(t, ledger.StatusFailed, failed.Status)
	assert.Equal(t, "upstream timeout", failed.Message)
	assert.Nil(t, failed.ResultLocation)
}

func TestWorker_ProcessJob_NoExecutor(t *testing.T) {
	ctx := context.Background()

	w, l := newTestWorker(t, NewExecutorRegistry())
	job := submitJob(t, l)

	err := w.processJob(ctx, &jobMessage{JobID: job.JobID})
	require.Error(t, err)
	assert.False(t, w.shouldRequeueJob(err))

	failed, getErr := l.Get(ctx, job.JobID)
	require.NoError(t, getErr)
	assert.Equal(t, ledger.StatusFailed, failed.Status)
	assert.Contains(t, failed.Message, "no executor registered")
}

func TestWorker_ProcessJob_AlreadyClaimed(t *testing.T) {
	ctx := context.Background()

	exec := &fakeExecutor{result: &Result{Location: "exports/x"}}
	registry := NewExecutorRegistry()
	registry.Register(ledger.JobTypeExport, exec)

	w, l := newTestWorker(t, registry)
	job := submitJob(t, l)

	_, err := l.Start(ctx, job.JobID)
	require.NoError(t, err)

	err = w.processJob(ctx, &jobMessage{JobID: job.JobID})
	require.Error(t, err)

	var stateErr *ledger.InvalidStateError
	assert.ErrorAs(t, err, &stateErr)
	assert.False(t, w.shouldRequeueJob(err))
	assert.Zero(t, exec.calls)
}

func TestWorker_ProcessJob_UnknownJob(t *testing.T) {
	w, _ := newTestWorker(t, DefaultExecutors())

	err := w.processJob(context.Background(), &jobMessage{
		JobID: "00000000-0000-0000-0000-000000000000",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrJobNotFound)
	assert.False(t, w.shouldRequeueJob(err))
}

func TestWorker_ShouldRequeueJob(t *testing.T) {
	w, _ := newTestWorker(t, DefaultExecutors())

	assert.True(t, w.shouldRequeueJob(NewRetryableError(errors.New("connection reset"))))
	assert.False(t, w.shouldRequeueJob(errors.New("plain failure")))
	assert.False(t, w.shouldRequeueJob(ledger.ErrJobNotFound))
	assert.False(t, w.shouldRequeueJob(&ledger.InvalidStateError{
		JobID:  "x",
		Status: ledger.StatusRunning,
		Op:     "start",
	}))
}
