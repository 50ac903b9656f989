package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// envFile is the dotenv file loaded before any subcommand runs.
var envFile string

// NewRootCmd creates the root command for the Hermes CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hermes",
		Short: "Hermes - authentication and role-based access backend",
		PersistentPreRun: func(*cobra.Command, []string) {
			loadLocalEnv(envFile)
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

func loadLocalEnv(path string) {
	if err := godotenv.Load(path); err != nil {
		slog.Debug("no env file found; relying on existing environment", "path", path)
	}
}
