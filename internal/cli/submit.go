package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bsvalues/terrafusion-sync/internal/ledger"
	"github.com/bsvalues/terrafusion-sync/shared/rabbitmq"
	"github.com/spf13/cobra"
)

// NewSubmitCmd submits a new job and enqueues it for the worker fleet.
func NewSubmitCmd(deps *Deps) *cobra.Command {
	var (
		jobType  string
		countyID string
		params   string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new job",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			job, err := deps.Ledger.Submit(ctx, ledger.JobType(jobType), countyID, json.RawMessage(params))
			if err != nil {
				return err
			}

			if err := enqueue(ctx, deps, job.JobID); err != nil {
				if failErr := deps.Ledger.Fail(ctx, job.JobID, "failed to enqueue job message"); failErr != nil {
					fmt.Println("Warning: job left unenqueued:", failErr)
				}
				return fmt.Errorf("failed to enqueue job: %w", err)
			}

			fmt.Printf("Submitted %s job %s for %s (status %s)\n", job.JobType, job.JobID, job.CountyID, job.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&jobType, "type", "", "Job type: sync, export, report, analysis")
	cmd.Flags().StringVar(&countyID, "county", "", "County scope for the job")
	cmd.Flags().StringVar(&params, "params", "", "Job parameters as a JSON object")
	cmd.MarkFlagRequired("type")
	cmd.MarkFlagRequired("county")
	cmd.MarkFlagRequired("params")

	return cmd
}

func enqueue(ctx context.Context, deps *Deps, jobID string) error {
	cfg := deps.Config.RabbitMQ

	client, err := rabbitmq.NewClient(&rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      1,
		Heartbeat:          cfg.Connection.Heartbeat,
	}, discardLogger())
	if err != nil {
		return err
	}
	defer client.Close()

	msg, err := json.Marshal(map[string]string{"job_id": jobID})
	if err != nil {
		return err
	}

	return client.PublishWithRetry(ctx, msg, "application/json")
}
