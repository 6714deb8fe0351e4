package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get a single call by ID",
	Long: `Get a single call by its ID.

Example:
  calldesk get 3`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	id := parseID(args[0])
	s := openStore()

	c, ok := s.Get(id)
	if !ok {
		exitWithError(ExitNotFound, "call not found: %d", id)
	}
	printCall(c, "")
	return nil
}
