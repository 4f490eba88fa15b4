// Command supervisorctl is the daemon and query CLI for the service
// supervisor, grounded on cmd/provisr/main.go's cobra root-command-plus-
// persistent-flags layout and its printJSON helper.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func main() {
	var configPath string

	root := &cobra.Command{Use: "supervisorctl"}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to supervisor config file (toml/yaml/json)")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newStatusCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newHealthCmd())
	root.AddCommand(newHistoryCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
