// Package index maintains a derived SQLite database of call records for
// full-text search and aggregate queries.
//
// The flat data file stays authoritative. The index records the SHA-256 of
// the data file it was built from so callers can tell when it is stale.
package index

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/matsen/calldesk/internal/call"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// selectCallFields contains the standard field list for SELECT queries.
const selectCallFields = `id, caller_name, contact_number, description,
	required_services, created_at, status`

// Open opens or creates an index database at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS calls (
			id INTEGER PRIMARY KEY,
			caller_name TEXT NOT NULL,
			contact_number TEXT NOT NULL,
			description TEXT,
			required_services TEXT,
			created_at TEXT NOT NULL,
			status TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_calls_status ON calls(status);

		-- Full-text search over the free-text fields
		-- rowid mirrors calls.id
		CREATE VIRTUAL TABLE IF NOT EXISTS calls_fts USING fts5(
			caller_name,
			contact_number,
			description,
			required_services
		);

		CREATE TABLE IF NOT EXISTS _meta (
			key TEXT PRIMARY KEY,
			value TEXT
		);
	`

	_, err := db.Exec(schema)
	return err
}

// Rebuild clears the index and inserts calls in one transaction, then
// records sourceHash and the sync time.
func (d *DB) Rebuild(calls []call.Call, sourceHash string) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM calls"); err != nil {
		return 0, fmt.Errorf("clearing calls table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM calls_fts"); err != nil {
		return 0, fmt.Errorf("clearing calls_fts table: %w", err)
	}

	callsStmt, err := tx.Prepare(`INSERT INTO calls (` + selectCallFields + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing calls insert: %w", err)
	}
	defer callsStmt.Close()

	ftsStmt, err := tx.Prepare(`
		INSERT INTO calls_fts (rowid, caller_name, contact_number, description, required_services)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for _, c := range calls {
		_, err := callsStmt.Exec(
			c.ID, c.CallerName, c.ContactNumber, c.Description,
			c.RequiredServices, c.CreatedAt.Format(call.TimeLayout), string(c.Status),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting call %d: %w", c.ID, err)
		}

		_, err = ftsStmt.Exec(c.ID, c.CallerName, c.ContactNumber, c.Description, c.RequiredServices)
		if err != nil {
			return 0, fmt.Errorf("inserting fts for %d: %w", c.ID, err)
		}
	}

	if err := setMeta(tx, "source_hash", sourceHash); err != nil {
		return 0, fmt.Errorf("updating hash: %w", err)
	}
	if err := setMeta(tx, "last_sync", time.Now().Format(time.RFC3339)); err != nil {
		return 0, fmt.Errorf("updating sync time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return len(calls), nil
}

// NeedsRebuild reports whether the index was built from a different file.
func (d *DB) NeedsRebuild(sourceHash string) (bool, error) {
	stored, err := d.meta("source_hash")
	if err != nil {
		return true, err
	}
	return stored != sourceHash, nil
}

// LastSync returns when the index was last rebuilt, or the zero time.
func (d *DB) LastSync() (time.Time, error) {
	value, err := d.meta("last_sync")
	if err != nil || value == "" {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, value)
}

// Search performs a full-text search and returns matching calls in id order.
func (d *DB) Search(query string, limit int) ([]call.Call, error) {
	ftsQuery := PrepareFTSQuery(query)
	if ftsQuery == "" {
		return []call.Call{}, nil
	}

	rows, err := d.db.Query(`
		SELECT `+selectCallFields+`
		FROM calls
		WHERE id IN (SELECT rowid FROM calls_fts WHERE calls_fts MATCH ?)
		ORDER BY id
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanCalls(rows)
}

// CountByStatus returns the number of indexed calls per status. Every known
// status is present in the result, zero when absent.
func (d *DB) CountByStatus() (map[call.Status]int, error) {
	counts := make(map[call.Status]int, len(call.Statuses))
	for _, s := range call.Statuses {
		counts[s] = 0
	}

	rows, err := d.db.Query(`SELECT status, COUNT(*) FROM calls GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[call.Status(status)] = n
	}
	return counts, rows.Err()
}

// Count returns the number of indexed calls.
func (d *DB) Count() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM calls").Scan(&n)
	return n, err
}

func scanCalls(rows *sql.Rows) ([]call.Call, error) {
	calls := []call.Call{}
	for rows.Next() {
		var c call.Call
		var created, status string
		if err := rows.Scan(&c.ID, &c.CallerName, &c.ContactNumber, &c.Description,
			&c.RequiredServices, &created, &status); err != nil {
			return nil, err
		}
		ts, err := time.ParseInLocation(call.TimeLayout, created, time.Local)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at for %d: %w", c.ID, err)
		}
		c.CreatedAt = ts
		c.Status = call.Status(status)
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func setMeta(db execer, key, value string) error {
	_, err := db.Exec(`INSERT OR REPLACE INTO _meta (key, value) VALUES (?, ?)`, key, value)
	return err
}

func (d *DB) meta(key string) (string, error) {
	var value sql.NullString
	err := d.db.QueryRow("SELECT value FROM _meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value.String, nil
}

// PrepareFTSQuery quotes every whitespace-separated term so punctuation in
// user input (commas, hyphens) is matched literally. Terms are ANDed.
func PrepareFTSQuery(query string) string {
	terms := strings.Fields(query)
	for i, term := range terms {
		terms[i] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

// HashFile computes a SHA-256 hash of a file's contents. A missing file
// hashes like an empty one.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			h := sha256.Sum256([]byte{})
			return hex.EncodeToString(h[:]), nil
		}
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
