package main

import (
	"fmt"
	"strings"

	"github.com/matsen/calldesk/internal/index"
	"github.com/matsen/calldesk/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var indexSearchLimit int

func init() {
	indexSearchCmd.Flags().IntVarP(&indexSearchLimit, "limit", "n", DefaultSearchLimit, "Maximum results")
	indexCmd.AddCommand(indexRebuildCmd)
	indexCmd.AddCommand(indexSearchCmd)
	rootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the SQLite search index",
	Long: `The search index is a SQLite database derived from the data file.
It is rebuilt automatically when the data file changes, and can always be
deleted and rebuilt.`,
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the search index from the data file",
	Args:  cobra.NoArgs,
	RunE:  runIndexRebuild,
}

var indexSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search across all call fields",
	Long: `Full-text search across caller name, contact number, description and
required services. All terms must match.

Example:
  calldesk index search smoke garage`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndexSearch,
}

// RebuildResult is the response for the index rebuild command.
type RebuildResult struct {
	Status string `json:"status"`
	Calls  int    `json:"calls"`
	Path   string `json:"path"`
}

func runIndexRebuild(cmd *cobra.Command, args []string) error {
	s := openStore()
	db, path := openIndexDB(s)
	defer db.Close()

	n := rebuildIndex(db, s, hashDataFile(db, s))
	if humanOutput {
		outputHuman(fmt.Sprintf("Rebuilt search index with %d calls", n))
		return nil
	}
	outputJSON(RebuildResult{Status: "rebuilt", Calls: n, Path: path})
	return nil
}

func runIndexSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	s := openStore()
	db := openFreshIndex(s)
	defer db.Close()

	calls, err := db.Search(query, indexSearchLimit)
	if err != nil {
		exitWithError(ExitError, "searching index: %v", err)
	}
	printCalls(calls, "Matches", fmt.Sprintf("No matches for %q", query))
	return nil
}

// openIndexDB opens the index next to the store's data file.
func openIndexDB(s *store.Store) (*index.DB, string) {
	path := cfg.IndexPath(s.Path())
	db, err := index.Open(path)
	if err != nil {
		exitWithError(ExitError, "opening index: %v", err)
	}
	return db, path
}

// openFreshIndex opens the index and rebuilds it if the data file changed
// since the last rebuild.
func openFreshIndex(s *store.Store) *index.DB {
	db, path := openIndexDB(s)

	hash := hashDataFile(db, s)
	stale, err := db.NeedsRebuild(hash)
	if err != nil {
		db.Close()
		exitWithError(ExitError, "checking index: %v", err)
	}
	if stale {
		logger.Info("index stale, rebuilding", zap.String("path", path))
		rebuildIndex(db, s, hash)
	}
	return db
}

func hashDataFile(db *index.DB, s *store.Store) string {
	hash, err := index.HashFile(s.Path())
	if err != nil {
		db.Close()
		exitWithError(ExitDataError, "hashing data file: %v", err)
	}
	return hash
}

func rebuildIndex(db *index.DB, s *store.Store, hash string) int {
	n, err := db.Rebuild(s.List(), hash)
	if err != nil {
		db.Close()
		exitWithError(ExitError, "rebuilding index: %v", err)
	}
	logger.Debug("index rebuilt", zap.Int("calls", n))
	return n
}
