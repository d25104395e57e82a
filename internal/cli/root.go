// Package cli implements terractl, the operator command line for the job
// ledger.
package cli

import (
	"fmt"
	"os"

	"github.com/bsvalues/terrafusion-sync/internal/audit"
	"github.com/bsvalues/terrafusion-sync/internal/config"
	"github.com/bsvalues/terrafusion-sync/internal/ledger"
	ledgerpg "github.com/bsvalues/terrafusion-sync/internal/ledger/postgres"
	"github.com/bsvalues/terrafusion-sync/shared/logger"
	"github.com/bsvalues/terrafusion-sync/shared/postgresql"
	"github.com/spf13/cobra"
)

// Deps holds the connections shared by all subcommands. They are opened by
// the root command's PersistentPreRunE, so construction stays cheap for
// help output.
type Deps struct {
	Config   *config.Config
	Ledger   *ledger.Ledger
	DBClient *postgresql.Client
}

// Execute runs the terractl root command.
func Execute() error {
	deps := &Deps{}

	var configPath string

	root := &cobra.Command{
		Use:           "terractl",
		Short:         "Operate the TerraFusion job ledger",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			appLogger, err := logger.New(&logger.Config{
				Level:  "warn",
				Format: "console",
				Output: "stderr",
			})
			if err != nil {
				return err
			}

			dbClient, err := postgresql.NewClient(&postgresql.Config{
				Host:            cfg.Database.Host,
				Port:            cfg.Database.Port,
				User:            cfg.Database.User,
				Password:        cfg.Database.Password,
				Database:        cfg.Database.Database,
				SSLMode:         cfg.Database.SSLMode,
				MaxOpenConns:    2,
				MaxIdleConns:    1,
				ConnMaxLifetime: 0,
				ConnMaxIdleTime: 0,
			}, appLogger.Logger)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}

			db := dbClient.GetDB()
			deps.Config = cfg
			deps.DBClient = dbClient
			deps.Ledger = ledger.New(&ledger.Config{
				Store:  ledgerpg.NewStore(db, appLogger.Logger),
				Scopes: ledgerpg.NewCountyScopes(db),
				Sink:   audit.NewPostgresSink(db),
				Logger: appLogger.Logger,
			})

			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if deps.DBClient != nil {
				deps.DBClient.Close()
			}
		},
	}

	defaultConfigPath := os.Getenv("TERRACTL_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "Path to configuration file")

	root.AddCommand(
		NewSubmitCmd(deps),
		NewGetCmd(deps),
		NewListCmd(deps),
		NewFailCmd(deps),
	)

	return root.Execute()
}
