package worker

import (
	"context"

	"github.com/bsvalues/terrafusion-sync/internal/ledger"
)

// Result is what an executor hands back for a completed job: where the
// output landed and a structured summary of it.
type Result struct {
	Location string
	Summary  map[string]interface{}
}

// Executor runs the domain work for one job type. Implementations must
// honor context cancellation; the worker wraps each run in a timeout.
type Executor interface {
	Execute(ctx context.Context, job *ledger.Job) (*Result, error)
}

// ExecutorRegistry maps job types to their executors.
type ExecutorRegistry struct {
	executors map[ledger.JobType]Executor
}

// NewExecutorRegistry creates an empty registry.
func NewExecutorRegistry() *ExecutorRegistry {
	return &ExecutorRegistry{executors: make(map[ledger.JobType]Executor)}
}

// DefaultExecutors returns a registry with the standard executor for each
// known job type.
func DefaultExecutors() *ExecutorRegistry {
	r := NewExecutorRegistry()
	r.Register(ledger.JobTypeSync, &syncExecutor{})
	r.Register(ledger.JobTypeExport, &exportExecutor{})
	r.Register(ledger.JobTypeReport, &reportExecutor{})
	r.Register(ledger.JobTypeAnalysis, &analysisExecutor{})
	return r
}

// Register binds an executor to a job type, replacing any previous binding.
func (r *ExecutorRegistry) Register(jobType ledger.JobType, executor Executor) {
	r.executors[jobType] = executor
}

// Get returns the executor for a job type.
func (r *ExecutorRegistry) Get(jobType ledger.JobType) (Executor, bool) {
	executor, ok := r.executors[jobType]
	return executor, ok
}
