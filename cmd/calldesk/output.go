package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/matsen/calldesk/internal/call"
	"github.com/matsen/calldesk/internal/console"
	"github.com/matsen/calldesk/internal/store"
	"go.uber.org/zap"
)

// DefaultSearchLimit caps index search results.
const DefaultSearchLimit = 50

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable line to stdout.
func outputHuman(s string) {
	fmt.Println(s)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintln(os.Stderr, console.Error("error: "+msg))
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	_ = logger.Sync()
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	ID     int    `json:"id,omitempty"`
	Path   string `json:"path,omitempty"`
	Count  int    `json:"count,omitempty"`
}

// CallResponse wraps a call with a persistence warning when the change
// stayed in memory only.
type CallResponse struct {
	call.Call
	Warning string `json:"warning,omitempty"`
}

// MarshalJSON flattens the embedded call, whose own MarshalJSON would
// otherwise hide Warning.
func (r CallResponse) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(r.Call)
	if err != nil || r.Warning == "" {
		return data, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	fields["warning"] = r.Warning
	return json.Marshal(fields)
}

// ListResponse is the response for commands that return several calls.
type ListResponse struct {
	Calls []call.Call `json:"calls"`
	Count int         `json:"count"`
}

// loadStore loads the configured data file. On error the returned store
// is empty but usable.
func loadStore() (*store.Store, error) {
	path := cfg.DataPath(dataFileFlag)
	s := store.New(path, store.WithLogger(logger))
	res, err := s.Load()
	if err != nil {
		return s, err
	}
	logger.Debug("loaded data file",
		zap.String("path", path),
		zap.Int("loaded", res.Loaded),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("duplicates", res.Duplicates),
		zap.Bool("created", res.Created))
	return s, nil
}

// openStore loads the data file for a one-shot command. An unreadable file
// exits with ExitDataError so a later save cannot overwrite it.
func openStore() *store.Store {
	s, err := loadStore()
	if err != nil {
		exitWithError(ExitDataError, "loading %s: %v", s.Path(), err)
	}
	return s
}

// parseID parses a positive call id argument.
func parseID(arg string) int {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		exitWithError(ExitError, "invalid id %q: must be a positive integer", arg)
	}
	return id
}

// exitCodeFor maps an operation error to the exit code it should produce.
func exitCodeFor(err error) int {
	switch {
	case call.IsValidationError(err), errors.Is(err, call.ErrInvalidStatus):
		return ExitDataError
	case errors.Is(err, store.ErrNotFound):
		return ExitNotFound
	}
	return ExitError
}

// persistWarning turns a not-persisted error into a warning string. Any
// other error exits with the code from exitCodeFor.
func persistWarning(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, store.ErrNotPersisted) {
		return err.Error()
	}
	exitWithError(exitCodeFor(err), "%v", err)
	return ""
}

// printCall outputs a single call in the selected format.
func printCall(c call.Call, warning string) {
	if humanOutput {
		if warning != "" {
			fmt.Fprintln(os.Stderr, console.Notice("warning: "+warning))
		}
		outputHuman(console.Card(c))
		return
	}
	outputJSON(CallResponse{Call: c, Warning: warning})
}

// printCalls outputs several calls in the selected format.
func printCalls(calls []call.Call, countLabel, emptyMsg string) {
	if !humanOutput {
		outputJSON(ListResponse{Calls: calls, Count: len(calls)})
		return
	}
	if len(calls) == 0 {
		outputHuman(emptyMsg)
		return
	}
	outputHuman(console.List(calls, countLabel))
}
