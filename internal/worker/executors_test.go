package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bsvalues/terrafusion-sync/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJob(jobType ledger.JobType, params string) *ledger.Job {
	return &ledger.Job{
		JobID:      "f5f04112-7ad2-45f2-ae6b-0a1c7e2b9a31",
		JobType:    jobType,
		CountyID:   "benton-wa",
		Status:     ledger.StatusRunning,
		Parameters: json.RawMessage(params),
	}
}

func TestDefaultExecutors(t *testing.T) {
	registry := DefaultExecutors()
	for _, jt := range ledger.KnownJobTypes() {
		_, ok := registry.Get(jt)
		assert.True(t, ok, "missing executor for %s", jt)
	}
	_, ok := registry.Get(ledger.JobType("reindex"))
	assert.False(t, ok)
}

func TestExecutors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		executor     Executor
		job          *ledger.Job
		wantLocation string
		checkSummary func(t *testing.T, summary map[string]interface{})
	}{
		{
			name:         "sync",
			executor:     &syncExecutor{},
			job:          testJob(ledger.JobTypeSync, `{"source_system":"cama","incremental":true}`),
			wantLocation: "sync/benton-wa/f5f04112-7ad2-45f2-ae6b-0a1c7e2b9a31",
			checkSummary: func(t *testing.T, summary map[string]interface{}) {
				assert.Equal(t, "cama", summary["source_system"])
				assert.Equal(t, true, summary["incremental"])
				assert.Equal(t, 3, summary["tables_synced"])
			},
		},
		{
			name:         "export",
			executor:     &exportExecutor{},
			job:          testJob(ledger.JobTypeExport, `{"format":"geojson","layers":["parcels","zoning"]}`),
			wantLocation: "exports/benton-wa/f5f04112-7ad2-45f2-ae6b-0a1c7e2b9a31.geojson",
			checkSummary: func(t *testing.T, summary map[string]interface{}) {
				assert.Equal(t, "geojson", summary["format"])
				assert.Equal(t, 2, summary["layers"])
			},
		},
		{
			name:         "report defaults to pdf",
			executor:     &reportExecutor{},
			job:          testJob(ledger.JobTypeReport, `{"report_type":"levy-summary","year":2025}`),
			wantLocation: "reports/benton-wa/levy-summary-2025.pdf",
			checkSummary: func(t *testing.T, summary map[string]interface{}) {
				assert.Equal(t, "levy-summary", summary["report_type"])
				assert.Equal(t, 2025, summary["year"])
			},
		},
		{
			name:         "analysis",
			executor:     &analysisExecutor{},
			job:          testJob(ledger.JobTypeAnalysis, `{"analysis_type":"trend","years_back":10}`),
			wantLocation: "analysis/benton-wa/f5f04112-7ad2-45f2-ae6b-0a1c7e2b9a31",
			checkSummary: func(t *testing.T, summary map[string]interface{}) {
				assert.Equal(t, "trend", summary["analysis_type"])
				assert.Equal(t, 10, summary["years_back"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.executor.Execute(ctx, tt.job)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLocation, result.Location)
			tt.checkSummary(t, result.Summary)
		})
	}
}

func TestExecutors_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := testJob(ledger.JobTypeExport, `{"format":"geojson"}`)
	_, err := (&exportExecutor{}).Execute(ctx, job)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulateWork_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	err := simulateWork(ctx, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
