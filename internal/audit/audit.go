// Package audit provides the append-only event sink the platform uses for
// its shared activity log. Components receive a Sink by injection; there is
// no package-level default.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Event types emitted by the job ledger. The health monitor writes its own
// service_* events to the same log through a separate process.
const (
	EventJobSubmitted = "job_submitted"
	EventJobRejected  = "job_rejected"
	EventJobStarted   = "job_started"
	EventJobCompleted = "job_completed"
	EventJobFailed    = "job_failed"
)

// Event is one append-only activity log entry.
type Event struct {
	EventType string    `db:"event_type" json:"event_type"`
	JobID     string    `db:"job_id" json:"job_id,omitempty"`
	JobType   string    `db:"job_type" json:"job_type,omitempty"`
	CountyID  string    `db:"county_id" json:"county_id,omitempty"`
	Detail    string    `db:"detail" json:"detail,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Sink receives activity log entries. Append must be safe for concurrent use.
type Sink interface {
	Append(ctx context.Context, ev Event) error
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Append(context.Context, Event) error { return nil }

// LogSink writes events to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink that logs events at info level.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Append(ctx context.Context, ev Event) error {
	s.logger.InfoContext(ctx, "Audit event",
		slog.String("event_type", ev.EventType),
		slog.String("job_id", ev.JobID),
		slog.String("job_type", ev.JobType),
		slog.String("county_id", ev.CountyID),
		slog.String("detail", ev.Detail),
	)
	return nil
}

// CaptureSink records events in memory for inspection in tests.
type CaptureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *CaptureSink) Append(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of every appended event in order.
func (s *CaptureSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
