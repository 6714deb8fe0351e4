package main

import (
	"fmt"
	"os"

	"github.com/matsen/calldesk/internal/console"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a call by ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

// DeleteResponse is the response for the delete command.
type DeleteResponse struct {
	Status  string `json:"status"`
	ID      int    `json:"id"`
	Warning string `json:"warning,omitempty"`
}

func runDelete(cmd *cobra.Command, args []string) error {
	id := parseID(args[0])
	s := openStore()

	removed, err := s.Delete(id)
	if !removed {
		exitWithError(ExitNotFound, "call not found: %d", id)
	}
	warning := persistWarning(err)

	if humanOutput {
		if warning != "" {
			fmt.Fprintln(os.Stderr, console.Notice("warning: "+warning))
		}
		outputHuman(fmt.Sprintf("Deleted record %d", id))
		return nil
	}
	outputJSON(DeleteResponse{Status: "deleted", ID: id, Warning: warning})
	return nil
}
