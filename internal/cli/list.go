package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/bsvalues/terrafusion-sync/internal/ledger"
	"github.com/spf13/cobra"
)

// NewListCmd enumerates jobs newest first.
func NewListCmd(deps *Deps) *cobra.Command {
	var (
		countyID string
		jobType  string
		status   string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := deps.Ledger.List(context.Background(), ledger.JobFilter{
				CountyID: countyID,
				JobType:  ledger.JobType(jobType),
				Status:   ledger.Status(status),
				PageSize: limit,
			})
			if err != nil {
				return err
			}

			if len(jobs) > limit {
				jobs = jobs[:limit]
			}

			if len(jobs) == 0 {
				fmt.Println("No jobs found.")
				return nil
			}

			for _, j := range jobs {
				fmt.Printf("%s | %-8s | %-12s | %-9s | %s | %s\n",
					j.JobID, j.JobType, j.CountyID, j.Status,
					j.CreatedAt.Format(time.RFC3339), j.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&countyID, "county", "", "Filter by county scope")
	cmd.Flags().StringVar(&jobType, "type", "", "Filter by job type")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of jobs to show")

	return cmd
}
