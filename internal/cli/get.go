package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bsvalues/terrafusion-sync/internal/ledger"
	"github.com/spf13/cobra"
)

// NewGetCmd prints one job record.
func NewGetCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "get <job_id>",
		Args:  cobra.ExactArgs(1),
		Short: "Show a job",
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := deps.Ledger.Get(context.Background(), args[0])
			if err != nil {
				return err
			}

			printJob(job)
			return nil
		},
	}
}

func printJob(job *ledger.Job) {
	fmt.Printf("%s | %s | %s | %s | %s\n",
		job.JobID, job.JobType, job.CountyID, job.Status, job.CreatedAt.Format(time.RFC3339))
	fmt.Printf("  message: %s\n", job.Message)
	if job.StartedAt != nil {
		fmt.Printf("  started: %s\n", job.StartedAt.Format(time.RFC3339))
	}
	if job.CompletedAt != nil {
		fmt.Printf("  completed: %s\n", job.CompletedAt.Format(time.RFC3339))
	}
	if job.ResultLocation != nil {
		fmt.Printf("  result: %s\n", *job.ResultLocation)
	}
	if len(job.ResultSummary) > 0 {
		fmt.Printf("  summary: %s\n", string(job.ResultSummary))
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
