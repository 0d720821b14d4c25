// Package commands implements the backendbuddy CLI's subcommands.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thehillbeyondthisone/BackendBuddy/internal/logger"
)

// RootCmd is the backendbuddy CLI's top-level command.
var RootCmd = &cobra.Command{
	Use:   "backendbuddy",
	Short: "Reverse proxy, waiting room, and process supervisor for a development backend",
	Long: `backendbuddy fronts a backend (and optional frontend) dev server with a
single admin port: a reverse proxy, an admission-controlled waiting room,
a process supervisor, a tunnel supervisor, and a broadcast hub feeding live
logs, queue state, and traffic to admin WebSocket clients.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonLogs := os.Getenv("BACKENDBUDDY_LOG_JSON") == "1"
		if err := logger.Initialize(jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(ServeCmd)
	RootCmd.AddCommand(ConfigCmd)
	RootCmd.AddCommand(VersionCmd)
}
