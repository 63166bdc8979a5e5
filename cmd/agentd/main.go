// Agentd is a coding-agent daemon with an HTTP event-stream transport.
//
// This binary starts the agentd HTTP server with full service
// initialization, including the model client, the workspace code index,
// and the orchestration services.
//
// Usage:
//
//	# Start server with defaults
//	agentd serve
//
//	# Start with a config file
//	agentd serve --config ~/.config/agentd/config.yaml
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "agentd",
	Short: "Coding-agent daemon",
	Long: `agentd runs a tool-calling coding agent behind an HTTP API.
It streams agent turns as newline-delimited JSON events and gates
file mutations behind human-approved checkpoints.`,
	Version: version,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show detailed version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("agentd by Fyrsmith Labs\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}
