package main

import (
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	client := newClient()

	resp, err := client.http.Get(client.baseURL + "/healthz")
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	status := "down"
	if resp.StatusCode == http.StatusOK {
		status = "ok"
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(map[string]string{
			"status":   status,
			"response": string(body),
		})
	}

	printTable([]string{"Check", "Status"}, [][]string{{"Liveness", status}})
	return nil
}
