package main

import (
	"fmt"
	"os"

	"github.com/matsen/calldesk/internal/console"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	rootCmd.AddCommand(shellCmd)
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start the interactive menu (default)",
	Long: `Start the interactive menu. Every change is saved immediately, and the
file is saved once more on exit or end of input.

If the data file cannot be read, the menu starts with no calls.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func runShell(cmd *cobra.Command, args []string) error {
	s, err := loadStore()
	if err != nil {
		logger.Warn("could not load data file, starting empty",
			zap.String("path", s.Path()), zap.Error(err))
		fmt.Fprintln(os.Stderr, console.Notice(fmt.Sprintf("Could not load %s (%v). Starting with no calls.", s.Path(), err)))
	}
	return console.Run(os.Stdin, os.Stdout, s)
}
