package audit

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PostgresSink appends events to the shared audit_log table.
type PostgresSink struct {
	db *sqlx.DB
}

// NewPostgresSink creates a sink backed by the audit_log table.
func NewPostgresSink(db *sqlx.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Append(ctx context.Context, ev Event) error {
	query := `
		INSERT INTO audit_log (event_type, job_id, job_type, county_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		ev.EventType,
		ev.JobID,
		ev.JobType,
		ev.CountyID,
		ev.Detail,
		ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}

	return nil
}
