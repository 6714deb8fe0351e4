package main

import (
	"fmt"
	"strings"

	"github.com/matsen/calldesk/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set values in ~/.config/calldesk/config.yml.

Usage:
  calldesk config                        # Show all config
  calldesk config data-file              # Get specific value
  calldesk config data-file ~/calls.txt  # Set value

Keys:
  data-file   Backing text file for call records (default calls.txt)
  index-file  SQLite search index (default <data-file>.db)
  log-level   debug, info, warn or error (default warn)

Environment variables ` + config.EnvDataFile + `, ` + config.EnvIndexFile + ` and
` + config.EnvLogLevel + ` override the file; a .env file in the working
directory is read too.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// ConfigResponse is the response for config show.
type ConfigResponse struct {
	Path      string `json:"path"`
	DataFile  string `json:"data_file"`
	IndexFile string `json:"index_file"`
	LogLevel  string `json:"log_level"`
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	path := config.Path()

	switch len(args) {
	case 0:
		dataPath := cfg.DataPath(dataFileFlag)
		resp := ConfigResponse{
			Path:      path,
			DataFile:  dataPath,
			IndexFile: cfg.IndexPath(dataPath),
			LogLevel:  cfg.Level(),
		}
		if humanOutput {
			outputHuman(fmt.Sprintf("config:     %s\ndata-file:  %s\nindex-file: %s\nlog-level:  %s",
				resp.Path, resp.DataFile, resp.IndexFile, resp.LogLevel))
			return nil
		}
		outputJSON(resp)

	case 1:
		value, err := cfg.Get(args[0])
		if err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		if humanOutput {
			outputHuman(value)
			return nil
		}
		outputJSON(map[string]string{strings.ReplaceAll(config.NormalizeKey(args[0]), "-", "_"): value})

	case 2:
		// Set against the file alone so env overrides are not written back.
		fileCfg, err := config.LoadFile(path)
		if err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		key, value := config.NormalizeKey(args[0]), args[1]
		if err := fileCfg.Set(key, value); err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		if err := fileCfg.Save(path); err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		if humanOutput {
			outputHuman(fmt.Sprintf("Set %s = %s", key, value))
			return nil
		}
		outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value})
	}
	return nil
}
