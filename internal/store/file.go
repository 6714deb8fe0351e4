package store

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matsen/calldesk/internal/call"
	"github.com/matsen/calldesk/internal/codec"
	"go.uber.org/zap"
)

// MaxLineCapacity is the longest line Load decodes (1MB). Longer lines are
// skipped.
const MaxLineCapacity = 1024 * 1024

// ErrLineTooLong marks a skipped line longer than MaxLineCapacity.
var ErrLineTooLong = errors.New("line too long")

// SkippedLine records a line Load could not decode.
type SkippedLine struct {
	LineNum int    `json:"line"`
	Reason  string `json:"reason"`
}

// LoadResult summarizes a Load.
type LoadResult struct {
	Loaded     int           `json:"loaded"`
	Skipped    []SkippedLine `json:"skipped,omitempty"`
	Duplicates int           `json:"duplicates,omitempty"`
	Created    bool          `json:"created,omitempty"` // backing file did not exist
}

// Load replaces the in-memory collection with the contents of the backing
// file. Lines that fail to decode are logged and skipped. A missing file is
// created empty. On a read error the collection is left empty and the error
// is returned.
func (s *Store) Load() (*LoadResult, error) {
	s.reset()
	result := &LoadResult{}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := createEmpty(s.path); err != nil {
				s.logger.Warn("could not create data file", zap.String("path", s.path), zap.Error(err))
				return result, err
			}
			result.Created = true
			return result, nil
		}
		s.logger.Warn("could not open data file", zap.String("path", s.path), zap.Error(err))
		return result, fmt.Errorf("opening data file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	lineNum := 0
	for {
		raw, tooLong, err := readLine(r)
		if err != nil && err != io.EOF {
			s.reset()
			s.logger.Warn("could not read data file", zap.String("path", s.path), zap.Error(err))
			return &LoadResult{}, fmt.Errorf("reading data file: %w", err)
		}
		if raw == "" && !tooLong && err == io.EOF {
			break
		}
		lineNum++

		if tooLong {
			s.skip(result, lineNum, fmt.Errorf("%w (max %d bytes)", ErrLineTooLong, MaxLineCapacity))
		} else {
			s.loadLine(result, lineNum, raw)
		}
		if err == io.EOF {
			break
		}
	}

	result.Loaded = s.Len()
	return result, nil
}

// loadLine decodes one line into the store, recording skips and duplicates.
func (s *Store) loadLine(result *LoadResult, lineNum int, raw string) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return
	}

	c, err := codec.Decode(line, s.now)
	if err != nil {
		s.skip(result, lineNum, err)
		return
	}
	if ts, st := codec.Defaulted(line); ts || st {
		s.logger.Debug("defaulted fields",
			zap.Int("line", lineNum),
			zap.Int("id", c.ID),
			zap.Bool("created_at", ts),
			zap.Bool("status", st))
	}

	if s.put(c) {
		result.Duplicates++
		s.logger.Warn("duplicate id, later line wins",
			zap.String("path", s.path),
			zap.Int("line", lineNum),
			zap.Int("id", c.ID))
	}
}

func (s *Store) skip(result *LoadResult, lineNum int, err error) {
	s.logger.Warn("skipping bad line",
		zap.String("path", s.path),
		zap.Int("line", lineNum),
		zap.Error(err))
	result.Skipped = append(result.Skipped, SkippedLine{LineNum: lineNum, Reason: err.Error()})
}

// readLine reads up to and including the next newline. A line longer than
// MaxLineCapacity is consumed but not returned, and tooLong is set. err is
// io.EOF when the input ends, possibly alongside a final unterminated line.
func readLine(r *bufio.Reader) (line string, tooLong bool, err error) {
	var buf, chunk []byte
	for {
		chunk, err = r.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > MaxLineCapacity {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return string(buf), tooLong, err
	}
}

// createEmpty creates an empty file at path along with missing parents.
func createEmpty(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("creating data file: %w", err)
	}
	return f.Close()
}

// Save rewrites the backing file with every call in insertion order.
// It writes a temp file in the same directory and renames it into place.
// On failure the in-memory collection is unchanged and the returned error
// wraps ErrNotPersisted.
func (s *Store) Save() error {
	if err := writeAll(s.path, s.List()); err != nil {
		s.logger.Warn("could not save data file", zap.String("path", s.path), zap.Error(err))
		return errors.Join(ErrNotPersisted, err)
	}
	return nil
}

// writeAll writes calls to path atomically via temp file + rename.
func writeAll(path string, calls []call.Call) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*.txt")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	w := bufio.NewWriter(tmpFile)
	for _, c := range calls {
		if _, err := w.WriteString(codec.Encode(c) + "\n"); err != nil {
			tmpFile.Close()
			return fmt.Errorf("writing call %d: %w", c.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("flushing temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}
