// Package ledger tracks the lifecycle of long-running county platform jobs:
// data syncs, GIS exports, report generation, and market analysis runs.
package ledger

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Terminal reports whether no further transition is permitted out of s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// JobType distinguishes the operation variants tracked by the ledger.
type JobType string

const (
	JobTypeSync     JobType = "sync"
	JobTypeExport   JobType = "export"
	JobTypeReport   JobType = "report"
	JobTypeAnalysis JobType = "analysis"
)

// KnownJobTypes lists every job type the ledger accepts.
func KnownJobTypes() []JobType {
	return []JobType{JobTypeSync, JobTypeExport, JobTypeReport, JobTypeAnalysis}
}

// Valid reports whether t is a known job type.
func (t JobType) Valid() bool {
	switch t {
	case JobTypeSync, JobTypeExport, JobTypeReport, JobTypeAnalysis:
		return true
	}
	return false
}

// Job is one asynchronous unit of work. Parameters are immutable after
// submission; result fields are populated only on completion.
type Job struct {
	JobID          string          `db:"job_id" json:"job_id"`
	JobType        JobType         `db:"job_type" json:"job_type"`
	CountyID       string          `db:"county_id" json:"county_id"`
	Status         Status          `db:"status" json:"status"`
	Parameters     json.RawMessage `db:"parameters" json:"parameters"`
	Message        string          `db:"message" json:"message"`
	ResultLocation *string         `db:"result_location" json:"result_location,omitempty"`
	ResultSummary  json.RawMessage `db:"result_summary" json:"result_summary,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	StartedAt      *time.Time      `db:"started_at" json:"started_at,omitempty"`
	CompletedAt    *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}
