package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureSink(t *testing.T) {
	sink := &CaptureSink{}
	ctx := context.Background()

	require.NoError(t, sink.Append(ctx, Event{EventType: EventJobSubmitted, JobID: "a"}))
	require.NoError(t, sink.Append(ctx, Event{EventType: EventJobStarted, JobID: "a"}))

	events := sink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, EventJobSubmitted, events[0].EventType)
	assert.Equal(t, EventJobStarted, events[1].EventType)

	// The returned slice is a copy.
	events[0].EventType = "mutated"
	assert.Equal(t, EventJobSubmitted, sink.Events()[0].EventType)
}

func TestCaptureSink_ConcurrentAppend(t *testing.T) {
	sink := &CaptureSink{}
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sink.Append(ctx, Event{EventType: EventJobCompleted})
		}()
	}
	wg.Wait()

	assert.Len(t, sink.Events(), 50)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := sink.Append(context.Background(), Event{
		EventType: EventJobFailed,
		JobID:     "job-1",
		JobType:   "export",
		CountyID:  "benton-wa",
		Detail:    "upstream timeout",
	})
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, EventJobFailed, entry["event_type"])
	assert.Equal(t, "job-1", entry["job_id"])
	assert.Equal(t, "benton-wa", entry["county_id"])
}

func TestNopSink(t *testing.T) {
	assert.NoError(t, NopSink{}.Append(context.Background(), Event{EventType: EventJobSubmitted}))
}
