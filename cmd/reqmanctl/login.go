package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login <username> <password>",
	Short: "Authenticate and print an access token",
	Long: `login exchanges credentials for a bearer token.

Export the printed token as REQMAN_TOKEN or pass it with --token on
subsequent commands.`,
	Args: cobra.ExactArgs(2),
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	client := newClient()

	var resp struct {
		Token string         `json:"token"`
		User  map[string]any `json:"user"`
	}
	err := client.postJSON("/api/v1/auth/login", map[string]string{
		"username": args[0],
		"password": args[1],
	}, &resp)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(resp)
	}

	fmt.Println(resp.Token)
	return nil
}
