package main

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

var requirementsCmd = &cobra.Command{
	Use:     "requirements",
	Aliases: []string{"req", "reqs"},
	Short:   "Manage requirements",
}

var (
	reqListStatus   string
	reqListKeyword  string
	reqListPageSize int
	reqListToken    string

	reqCreateType     string
	reqCreatePriority string
	reqCreateProject  uint

	reqStatusComment string

	reqHistoryOrder string
)

func init() {
	reqListCmd.Flags().StringVar(&reqListStatus, "status", "", "Filter by status")
	reqListCmd.Flags().StringVar(&reqListKeyword, "keyword", "", "Filter by keyword in title, description, or code")
	reqListCmd.Flags().IntVar(&reqListPageSize, "page-size", 0, "Page size")
	reqListCmd.Flags().StringVar(&reqListToken, "page-token", "", "Page token from a previous list call")

	reqCreateCmd.Flags().StringVar(&reqCreateType, "type", "", "Requirement type")
	reqCreateCmd.Flags().StringVar(&reqCreatePriority, "priority", "", "Priority")
	reqCreateCmd.Flags().UintVar(&reqCreateProject, "project", 0, "Owning project ID")

	reqStatusCmd.Flags().StringVar(&reqStatusComment, "comment", "", "Comment to attach to the transition")

	reqHistoryCmd.Flags().StringVar(&reqHistoryOrder, "order", "desc", "Order: desc (newest first) or asc (oldest first)")

	requirementsCmd.AddCommand(reqListCmd)
	requirementsCmd.AddCommand(reqGetCmd)
	requirementsCmd.AddCommand(reqCreateCmd)
	requirementsCmd.AddCommand(reqDeleteCmd)
	requirementsCmd.AddCommand(reqStatusCmd)
	requirementsCmd.AddCommand(reqHistoryCmd)
	requirementsCmd.AddCommand(reqTransitionsCmd)
}

type requirementView struct {
	ID       uint   `json:"id"`
	Code     string `json:"code"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

var reqListCmd = &cobra.Command{
	Use:   "list",
	Short: "List requirements",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if reqListStatus != "" {
			q.Set("status", reqListStatus)
		}
		if reqListKeyword != "" {
			q.Set("keyword", reqListKeyword)
		}
		if reqListPageSize > 0 {
			q.Set("pageSize", strconv.Itoa(reqListPageSize))
		}
		if reqListToken != "" {
			q.Set("pageToken", reqListToken)
		}

		var resp struct {
			Items         []requirementView `json:"items"`
			NextPageToken string            `json:"nextPageToken"`
			TotalSize     int               `json:"totalSize"`
		}
		path := "/api/v1/requirements/"
		if len(q) > 0 {
			path += "?" + q.Encode()
		}
		if err := newClient().getJSON(path, &resp); err != nil {
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
				truncate(item.Title, 48),
				item.Type,
				item.Status,
				item.Priority,
			}
		}
		printTable([]string{"ID", "Code", "Title", "Type", "Status", "Priority"}, rows)
		if resp.NextPageToken != "" {
			fmt.Printf("\nNext page: --page-token %s\n", resp.NextPageToken)
		}
		return nil
	},
}

var reqGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get a requirement by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp map[string]any
		if err := newClient().getJSON("/api/v1/requirements/"+args[0], &resp); err != nil {
			return err
		}
		if outputFmt == "table" {
			outputFmt = "json"
		}
		return printOutput(resp)
	},
}

var reqCreateCmd = &cobra.Command{
	Use:   "create <title> <description>",
	Short: "Create a requirement in draft status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{
			"title":       args[0],
			"description": args[1],
		}
		if reqCreateType != "" {
			body["type"] = reqCreateType
		}
		if reqCreatePriority != "" {
			body["priority"] = reqCreatePriority
		}
		if reqCreateProject != 0 {
			body["projectId"] = reqCreateProject
		}

		var resp requirementView
		if err := newClient().postJSON("/api/v1/requirements/", body, &resp); err != nil {
			return err
		}
		fmt.Printf("Created %s (id %d)\n", resp.Code, resp.ID)
		return nil
	},
}

var reqDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a requirement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().delete("/api/v1/requirements/" + args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted requirement %s\n", args[0])
		return nil
	},
}

var reqStatusCmd = &cobra.Command{
	Use:   "status <id> <new-status>",
	Short: "Transition a requirement to a new status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]string{"status": args[1]}
		if reqStatusComment != "" {
			body["comment"] = reqStatusComment
		}

		var resp requirementView
		if err := newClient().postJSON("/api/v1/requirements/"+args[0]+"/status", body, &resp); err != nil {
			return err
		}
		fmt.Printf("%s is now %s\n", resp.Code, resp.Status)
		return nil
	},
}

var reqHistoryCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "Show a requirement's change history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/api/v1/requirements/" + args[0] + "/history"
		if reqHistoryOrder == "asc" {
			path += "?order=asc"
		}

		var resp struct {
			Items []struct {
				Action    string  `json:"action"`
				FieldName string  `json:"fieldName"`
				OldValue  *string `json:"oldValue"`
				NewValue  *string `json:"newValue"`
				Comment   string  `json:"comment"`
				ActorID   uint    `json:"actorId"`
				CreatedAt string  `json:"createdAt"`
			} `json:"items"`
			TotalSize int `json:"totalSize"`
		}
		if err := newClient().getJSON(path, &resp); err != nil {
			return err
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(resp)
		}

		deref := func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		}
		rows := make([][]string, len(resp.Items))
		for i, item := range resp.Items {
			rows[i] = []string{
				item.CreatedAt,
				item.Action,
				item.FieldName,
				truncate(deref(item.OldValue), 24),
				truncate(deref(item.NewValue), 24),
				strconv.FormatUint(uint64(item.ActorID), 10),
				truncate(item.Comment, 32),
			}
		}
		printTable([]string{"Time", "Action", "Field", "Old", "New", "Actor", "Comment"}, rows)
		return nil
	},
}

var reqTransitionsCmd = &cobra.Command{
	Use:   "transitions <id>",
	Short: "Show the legal target statuses for a requirement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Current string   `json:"current"`
			Allowed []string `json:"allowed"`
		}
		if err := newClient().getJSON("/api/v1/requirements/"+args[0]+"/transitions", &resp); err != nil {
			return err
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(resp)
		}

		rows := make([][]string, len(resp.Allowed))
		for i, s := range resp.Allowed {
			rows[i] = []string{resp.Current, s}
		}
		printTable([]string{"Current", "Allowed"}, rows)
		return nil
	},
}
