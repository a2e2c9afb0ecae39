package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"proj"},
	Short:   "Manage projects",
}

var projCreateDescription string

func init() {
	projCreateCmd.Flags().StringVar(&projCreateDescription, "description", "", "Project description")

	projectsCmd.AddCommand(projListCmd)
	projectsCmd.AddCommand(projGetCmd)
	projectsCmd.AddCommand(projCreateCmd)
	projectsCmd.AddCommand(projDeleteCmd)
}

type projectView struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Code   string `json:"code"`
	Status string `json:"status"`
}

var projListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Items         []projectView `json:"items"`
			NextPageToken string        `json:"nextPageToken"`
		}
		if err := newClient().getJSON("/api/v1/projects/", &resp); err != nil {
			return err
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(resp)
		}

		rows := make([][]string, len(resp.Items))
		for i, item := range resp.Items {
			rows[i] = []string{
				strconv.FormatUint(uint64(item.ID), 10),
				item.Code,
				truncate(item.Name, 48),
				item.Status,
			}
		}
		printTable([]string{"ID", "Code", "Name", "Status"}, rows)
		return nil
	},
}

var projGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get a project by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp map[string]any
		if err := newClient().getJSON("/api/v1/projects/"+args[0], &resp); err != nil {
			return err
		}
		if outputFmt == "table" {
			outputFmt = "json"
		}
		return printOutput(resp)
	},
}

var projCreateCmd = &cobra.Command{
	Use:   "create <name> <code>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{
			"name": args[0],
			"code": args[1],
		}
		if projCreateDescription != "" {
			body["description"] = projCreateDescription
		}

		var resp projectView
		if err := newClient().postJSON("/api/v1/projects/", body, &resp); err != nil {
			return err
		}
		fmt.Printf("Created project %s (id %d)\n", resp.Code, resp.ID)
		return nil
	},
}

var projDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().delete("/api/v1/projects/" + args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted project %s\n", args[0])
		return nil
	},
}
