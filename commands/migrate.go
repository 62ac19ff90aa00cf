package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"order-desk/config"
	"order-desk/database"
	"order-desk/repositories"
)

var rollbackSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema (SQL migrations for postgres, indexes for mongo)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := boot()
		ctx := cmd.Context()

		switch cfg.DBDriver {
		case config.DriverPostgres:
			fmt.Println("Running migrations…")
			return database.RunMigrations(cfg.PostgresDSN())
		case config.DriverMongo:
			client, err := config.ConnectMongo(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = client.Disconnect(context.Background()) }()
			fmt.Println("Creating indexes…")
			return repositories.EnsureMongoIndexes(ctx, client.Database(cfg.MongoDatabase))
		default:
			fmt.Printf("Nothing to migrate for the %s driver\n", cfg.DBDriver)
			return nil
		}
	},
}

var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Roll back postgres migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := boot()
		if cfg.DBDriver != config.DriverPostgres {
			return fmt.Errorf("rollback is only supported for the postgres driver (DB_DRIVER=%s)", cfg.DBDriver)
		}
		fmt.Printf("Rolling back %d step(s)…\n", rollbackSteps)
		return database.RollbackMigrations(cfg.PostgresDSN(), rollbackSteps)
	},
}

func init() {
	migrateRollbackCmd.Flags().IntVar(&rollbackSteps, "steps", 1, "number of migrations to roll back")
}
