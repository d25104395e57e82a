package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewFailCmd marks a stuck PENDING or RUNNING job as failed. Terminal jobs
// are refused by the ledger.
func NewFailCmd(deps *Deps) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "fail <job_id>",
		Args:  cobra.ExactArgs(1),
		Short: "Mark a job as failed",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.Ledger.Fail(context.Background(), args[0], message); err != nil {
				return err
			}

			fmt.Println("Job marked as failed:", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&message, "message", "failed by operator", "Failure message to record")

	return cmd
}
