package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"order-desk/config"
	"order-desk/logger"
)

var rootCmd = &cobra.Command{
	Use:   "order-desk",
	Short: "Order Desk API server and admin tools",
	Long:  "Order Desk is a REST backend for users, authentication and orders. Running without a subcommand starts the HTTP server.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(createAdminCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// boot loads configuration and installs the process logger.
func boot() *config.Config {
	cfg := config.LoadConfig()
	logger.Init(cfg.IsProduction())
	return cfg
}
