// Package main provides the calldesk CLI entry point.
package main

import (
	"os"

	"github.com/matsen/calldesk/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	// dataFileFlag overrides the configured data file
	dataFileFlag string
	// verbose forces debug logging
	verbose bool
)

// Resolved in PersistentPreRunE.
var (
	cfg    *config.Config
	logger = zap.NewNop()
)

func main() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "calldesk",
	Short: "Emergency call record manager",
	Long: `calldesk records incoming emergency calls in a plain text file.

Run without a subcommand to start the interactive menu. Subcommands perform
a single operation and output JSON by default for easy scripting; pass
--human for formatted output.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runShell,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&dataFileFlag, "file", "", "Data file (overrides config and "+config.EnvDataFile+")")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.Version = Version
}

// setup loads configuration and builds the logger before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	cfg = loaded

	level := cfg.Level()
	if verbose {
		level = "debug"
	}
	l, err := newLogger(level)
	if err != nil {
		// Keep going so `calldesk config log-level` can still repair it.
		l, _ = newLogger(config.DefaultLogLevel)
		l.Warn("invalid log level, using default",
			zap.String("log_level", level), zap.String("default", config.DefaultLogLevel))
	}
	logger = l
	return nil
}

// newLogger builds a production zap logger writing to stderr at level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build()
}
