package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/matsen/calldesk/internal/call"
	"github.com/matsen/calldesk/internal/console"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show call counts by status",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

// StatsResponse is the response for the stats command.
type StatsResponse struct {
	Total    int                 `json:"total"`
	ByStatus map[call.Status]int `json:"by_status"`
	LastSync string              `json:"last_sync,omitempty"`
}

func runStats(cmd *cobra.Command, args []string) error {
	s := openStore()
	db := openFreshIndex(s)
	defer db.Close()

	counts, err := db.CountByStatus()
	if err != nil {
		exitWithError(ExitError, "counting calls: %v", err)
	}
	total, err := db.Count()
	if err != nil {
		exitWithError(ExitError, "counting calls: %v", err)
	}
	resp := StatsResponse{Total: total, ByStatus: counts}
	if last, err := db.LastSync(); err == nil && !last.IsZero() {
		resp.LastSync = last.Format(time.RFC3339)
	}

	if !humanOutput {
		outputJSON(resp)
		return nil
	}
	var b strings.Builder
	for _, st := range call.Statuses {
		fmt.Fprintf(&b, "%-12s %d\n", console.StatusLabel(st), counts[st])
	}
	fmt.Fprintf(&b, "Total: %d", total)
	outputHuman(b.String())
	return nil
}
