package dto

import (
	"encoding/json"
	"time"

	"github.com/bsvalues/terrafusion-sync/internal/ledger"
)

type SubmitJobRequest struct {
	JobType    string          `json:"job_type" binding:"required"`
	CountyID   string          `json:"county_id" binding:"required"`
	Parameters json.RawMessage `json:"parameters" binding:"required"`
}

type ListJobsRequest struct {
	CountyID string `form:"county_id"`
	JobType  string `form:"job_type"`
	Status   string `form:"status"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

type JobDTO struct {
	JobID          string          `json:"job_id"`
	JobType        string          `json:"job_type"`
	CountyID       string          `json:"county_id"`
	Status         string          `json:"status"`
	Parameters     json.RawMessage `json:"parameters"`
	Message        string          `json:"message"`
	ResultLocation string          `json:"result_location,omitempty"`
	ResultSummary  json.RawMessage `json:"result_summary,omitempty"`
	CreatedAt      string          `json:"created_at"`
	StartedAt      string          `json:"started_at,omitempty"`
	CompletedAt    string          `json:"completed_at,omitempty"`
}

// FromJob maps a ledger record onto the wire representation.
func FromJob(job *ledger.Job) JobDTO {
	out := JobDTO{
		JobID:      job.JobID,
		JobType:    string(job.JobType),
		CountyID:   job.CountyID,
		Status:     string(job.Status),
		Parameters: job.Parameters,
		Message:    job.Message,
		CreatedAt:  job.CreatedAt.Format(time.RFC3339),
	}
	if job.ResultLocation != nil {
		out.ResultLocation = *job.ResultLocation
	}
	if job.ResultSummary != nil {
		out.ResultSummary = job.ResultSummary
	}
	if job.StartedAt != nil {
		out.StartedAt = job.StartedAt.Format(time.RFC3339)
	}
	if job.CompletedAt != nil {
		out.CompletedAt = job.CompletedAt.Format(time.RFC3339)
	}
	return out
}
