// Package worker consumes job messages from RabbitMQ and drives claimed
// jobs through the ledger lifecycle.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bsvalues/terrafusion-sync/internal/ledger"
	"github.com/bsvalues/terrafusion-sync/shared/rabbitmq"
	"github.com/google/uuid"
)

// jobMessage is the unit dispatched from the consumer to the worker pool.
type jobMessage struct {
	JobID       string
	DeliveryTag uint64
}

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	Ledger        *ledger.Ledger
	RabbitClient  *rabbitmq.Client
	Executors     *ExecutorRegistry
	Concurrency   int
	JobTimeout    time.Duration
	PrefetchCount int
}

// Worker claims jobs from the ledger and runs their executors
type Worker struct {
	logger        *slog.Logger
	ledger        *ledger.Ledger
	rabbitClient  *rabbitmq.Client
	executors     *ExecutorRegistry
	workerID      string
	concurrency   int
	jobTimeout    time.Duration
	prefetchCount int
	jobsChan      chan *jobMessage
	wg            sync.WaitGroup
	stopChan      chan struct{}
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	executors := cfg.Executors
	if executors == nil {
		executors = DefaultExecutors()
	}

	return &Worker{
		logger:        cfg.Logger,
		ledger:        cfg.Ledger,
		rabbitClient:  cfg.RabbitClient,
		executors:     executors,
		workerID:      "worker-" + uuid.New().String(),
		concurrency:   cfg.Concurrency,
		jobTimeout:    cfg.JobTimeout,
		prefetchCount: cfg.PrefetchCount,
		jobsChan:      make(chan *jobMessage),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming job messages. It blocks until the context is
// canceled or the delivery channel closes.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return err
	}

	w.spawnWorkerPool(ctx)
	w.runDispatcher(ctx, deliveries)

	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}

// shouldRequeueJob determines if a message should be requeued based on the
// error class. Ledger state errors are final: the job was either claimed by
// another worker or already terminal.
func (w *Worker) shouldRequeueJob(err error) bool {
	var stateErr *ledger.InvalidStateError
	if errors.As(err, &stateErr) {
		return false
	}

	if errors.Is(err, ledger.ErrJobNotFound) {
		return false
	}

	var retryableErr *RetryableError
	return errors.As(err, &retryableErr)
}
