package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	authToken string
	actorID   string
	outputFmt string
)

var rootCmd = &cobra.Command{
	Use:   "reqmanctl",
	Short: "CLI for the requirement management server",
	Long: `reqmanctl interacts with the requirement management server.

It covers requirement CRUD, workflow status transitions, history
inspection, and project management. Authenticate with --token or the
REQMAN_TOKEN environment variable; against a dev server running in
header auth mode, --actor sets the acting user directly.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "Bearer token (default: REQMAN_TOKEN env)")
	rootCmd.PersistentFlags().StringVar(&actorID, "actor", "", "Actor user ID for header auth mode")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(requirementsCmd)
	rootCmd.AddCommand(projectsCmd)
}

// resolvedToken returns the effective bearer token.
// Priority: --token flag > REQMAN_TOKEN env var.
func resolvedToken() string {
	if authToken != "" {
		return authToken
	}
	return os.Getenv("REQMAN_TOKEN")
}
