package ledger

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SyncParams is the submission schema for data sync jobs.
type SyncParams struct {
	SourceSystem string   `json:"source_system" validate:"required"`
	Incremental  bool     `json:"incremental"`
	Tables       []string `json:"tables" validate:"omitempty,min=1,dive,required"`
}

// ExportParams is the submission schema for GIS export jobs.
type ExportParams struct {
	Format string   `json:"format" validate:"required,oneof=geojson shapefile csv kml"`
	Layers []string `json:"layers" validate:"omitempty,min=1,dive,required"`
}

// ReportParams is the submission schema for report generation jobs.
type ReportParams struct {
	ReportType string `json:"report_type" validate:"required,oneof=assessment-roll levy-summary exemption-audit"`
	Year       int    `json:"year" validate:"required,gte=1990,lte=2100"`
	Format     string `json:"format" validate:"omitempty,oneof=pdf xlsx csv"`
}

// AnalysisParams is the submission schema for market analysis jobs.
type AnalysisParams struct {
	AnalysisType  string `json:"analysis_type" validate:"required,oneof=trend comparable valuation-distribution"`
	YearsBack     int    `json:"years_back" validate:"omitempty,gte=1,lte=30"`
	PropertyClass string `json:"property_class"`
}

// ValidateParams checks raw submission parameters against the schema for the
// given job type. A nil return means the parameters are well-formed.
func ValidateParams(jobType JobType, raw json.RawMessage) error {
	if len(raw) == 0 {
		return &ValidationError{Detail: "parameters are required"}
	}

	var target any
	switch jobType {
	case JobTypeSync:
		target = &SyncParams{}
	case JobTypeExport:
		target = &ExportParams{}
	case JobTypeReport:
		target = &ReportParams{}
	case JobTypeAnalysis:
		target = &AnalysisParams{}
	default:
		return &ValidationError{Detail: "unknown job type " + string(jobType)}
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return &ValidationError{Detail: "parameters are not valid JSON for " + string(jobType), Err: err}
	}

	if err := validate.Struct(target); err != nil {
		return &ValidationError{Detail: "parameters failed " + string(jobType) + " schema", Err: err}
	}

	return nil
}
