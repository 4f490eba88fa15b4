package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/loykin/svcsuper/pkg/statusclient"
)

func newClientFlags(cmd *cobra.Command) *string {
	apiBase := new(string)
	cmd.Flags().StringVar(apiBase, "api", "http://localhost:8080/api", "base URL of a running supervisorctl serve's HTTP API")
	return apiBase
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "list", Short: "List registered services"}
	apiBase := newClientFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		c := statusclient.New(statusclient.Config{BaseURL: *apiBase, Timeout: 5 * time.Second})
		out, err := c.ListServices(context.Background())
		if err != nil {
			return err
		}
		printJSON(out)
		return nil
	}
	return cmd
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "status [name]", Short: "Show a service's managed status", Args: cobra.ExactArgs(1)}
	apiBase := newClientFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		c := statusclient.New(statusclient.Config{BaseURL: *apiBase, Timeout: 5 * time.Second})
		out, err := c.Status(context.Background(), args[0])
		if err != nil {
			return err
		}
		printJSON(out)
		return nil
	}
	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "history [name]", Short: "Show a service's recent lifecycle event history", Args: cobra.ExactArgs(1)}
	apiBase := newClientFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		c := statusclient.New(statusclient.Config{BaseURL: *apiBase, Timeout: 5 * time.Second})
		out, err := c.History(context.Background(), args[0])
		if err != nil {
			return err
		}
		printJSON(out)
		return nil
	}
	return cmd
}

func newHealthCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "health", Short: "Show health reports for every service"}
	apiBase := newClientFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		c := statusclient.New(statusclient.Config{BaseURL: *apiBase, Timeout: 5 * time.Second})
		out, err := c.HealthAll(context.Background())
		if err != nil {
			return err
		}
		printJSON(out)
		return nil
	}
	return cmd
}
