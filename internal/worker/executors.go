package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bsvalues/terrafusion-sync/internal/ledger"
)

// The standard executors stand in for the county systems that do the real
// work (CAMA sync, GIS engine, report renderer, analysis service). They
// produce stable result locations and summaries so the rest of the pipeline
// is exercised end to end.

type syncExecutor struct{}

func (e *syncExecutor) Execute(ctx context.Context, job *ledger.Job) (*Result, error) {
	var params ledger.SyncParams
	if err := json.Unmarshal(job.Parameters, &params); err != nil {
		return nil, fmt.Errorf("invalid sync parameters: %w", err)
	}

	if err := simulateWork(ctx, 50*time.Millisecond); err != nil {
		return nil, err
	}

	tables := params.Tables
	if len(tables) == 0 {
		tables = []string{"properties", "assessments", "owners"}
	}

	return &Result{
		Location: fmt.Sprintf("sync/%s/%s", job.CountyID, job.JobID),
		Summary: map[string]interface{}{
			"source_system": params.SourceSystem,
			"incremental":   params.Incremental,
			"tables_synced": len(tables),
		},
	}, nil
}

type exportExecutor struct{}

func (e *exportExecutor) Execute(ctx context.Context, job *ledger.Job) (*Result, error) {
	var params ledger.ExportParams
	if err := json.Unmarshal(job.Parameters, &params); err != nil {
		return nil, fmt.Errorf("invalid export parameters: %w", err)
	}

	if err := simulateWork(ctx, 50*time.Millisecond); err != nil {
		return nil, err
	}

	layers := params.Layers
	if len(layers) == 0 {
		layers = []string{"parcels"}
	}

	return &Result{
		Location: fmt.Sprintf("exports/%s/%s.%s", job.CountyID, job.JobID, params.Format),
		Summary: map[string]interface{}{
			"format": params.Format,
			"layers": len(layers),
		},
	}, nil
}

type reportExecutor struct{}

func (e *reportExecutor) Execute(ctx context.Context, job *ledger.Job) (*Result, error) {
	var params ledger.ReportParams
	if err := json.Unmarshal(job.Parameters, &params); err != nil {
		return nil, fmt.Errorf("invalid report parameters: %w", err)
	}

	if err := simulateWork(ctx, 50*time.Millisecond); err != nil {
		return nil, err
	}

	format := params.Format
	if format == "" {
		format = "pdf"
	}

	return &Result{
		Location: fmt.Sprintf("reports/%s/%s-%d.%s", job.CountyID, params.ReportType, params.Year, format),
		Summary: map[string]interface{}{
			"report_type": params.ReportType,
			"year":        params.Year,
			"format":      format,
		},
	}, nil
}

type analysisExecutor struct{}

func (e *analysisExecutor) Execute(ctx context.Context, job *ledger.Job) (*Result, error) {
	var params ledger.AnalysisParams
	if err := json.Unmarshal(job.Parameters, &params); err != nil {
		return nil, fmt.Errorf("invalid analysis parameters: %w", err)
	}

	if err := simulateWork(ctx, 50*time.Millisecond); err != nil {
		return nil, err
	}

	yearsBack := params.YearsBack
	if yearsBack == 0 {
		yearsBack = 5
	}

	return &Result{
		Location: fmt.Sprintf("analysis/%s/%s", job.CountyID, job.JobID),
		Summary: map[string]interface{}{
			"analysis_type":  params.AnalysisType,
			"years_back":     yearsBack,
			"property_class": params.PropertyClass,
		},
	}, nil
}

// simulateWork blocks for the given duration unless the context ends first.
func simulateWork(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return fmt.Errorf("job execution canceled: %w", ctx.Err())
	}
}
