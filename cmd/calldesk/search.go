package main

import (
	"fmt"

	"github.com/matsen/calldesk/internal/call"
	"github.com/matsen/calldesk/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search name|phone <substring>",
	Short: "Find calls by caller name or phone substring",
	Long: `Find calls whose caller name or contact number contains a substring.
Matching is case-insensitive. For full-text search across every field use
"calldesk index search".

Example:
  calldesk search name john
  calldesk search phone 555`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"name", "phone"},
	RunE:      runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	field, needle := args[0], args[1]
	s := openStore()

	search, err := searchFunc(s, field)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	printCalls(search(needle), "Matches", fmt.Sprintf("No matches for %s containing %q", field, needle))
	return nil
}

// searchFunc picks the store search for a field name.
func searchFunc(s *store.Store, field string) (func(string) []call.Call, error) {
	switch field {
	case "name":
		return s.SearchByName, nil
	case "phone":
		return s.SearchByPhone, nil
	}
	return nil, fmt.Errorf("unknown search field %q (valid: name, phone)", field)
}
