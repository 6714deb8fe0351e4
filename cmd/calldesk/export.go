package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matsen/calldesk/internal/call"
	"github.com/matsen/calldesk/internal/export"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
)

var errOutputRequired = errors.New("--output is required for xlsx")

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", export.FormatJSONL, "Export format ("+strings.Join(export.Formats, ", ")+")")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout for jsonl; required for xlsx)")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all calls as JSONL or an XLSX spreadsheet",
	Long: `Export all calls in insertion order.

Example:
  calldesk export > calls.jsonl
  calldesk export --format xlsx --output calls.xlsx`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	s := openStore()
	calls := s.List()

	if err := writeExport(os.Stdout, exportFormat, exportOutput, calls); err != nil {
		exitWithError(ExitError, "exporting: %v", err)
	}
	if exportOutput == "" {
		return nil // stdout carries the export itself
	}

	if humanOutput {
		outputHuman(fmt.Sprintf("Exported %d calls to %s", len(calls), exportOutput))
		return nil
	}
	outputJSON(StatusResponse{Status: "exported", Path: exportOutput, Count: len(calls)})
	return nil
}

// writeExport writes calls in format to output, or to stdout when output is
// empty and the format is a text stream.
func writeExport(stdout io.Writer, format, output string, calls []call.Call) error {
	switch strings.ToLower(format) {
	case export.FormatJSONL:
		if output == "" {
			return export.WriteJSONL(stdout, calls)
		}
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		if err := export.WriteJSONL(f, calls); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case export.FormatXLSX:
		if output == "" {
			return errOutputRequired
		}
		return export.WriteXLSX(output, calls)
	}
	return fmt.Errorf("unknown format %q (valid: %s)", format, strings.Join(export.Formats, ", "))
}
