// Package codec maps a call record to and from one line of delimited text.
//
// A line holds seven fields in fixed order:
//
//	id,callerName,contactNumber,description,requiredServices,createdAt,status
//
// Free-text fields escape a backslash as `\\`, the delimiter as `\,`, and
// line breaks as `\n` and `\r`, so a record always occupies one line.
// Decoding is strict about structure (field count, id) and lenient about the
// trailing createdAt and status fields, so older or hand-edited lines still load.
package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/matsen/calldesk/internal/call"
)

const (
	// Delimiter separates fields on a line.
	Delimiter = ','
	// EscapeChar suppresses the special meaning of the next character.
	EscapeChar = '\\'

	// MinFields is the fewest fields a decodable line may have.
	MinFields = 5
	// NumFields is the number of fields Encode writes.
	NumFields = 7

	// ShortTimeLayout is accepted on decode for timestamps written without
	// seconds, as ISO local date-time does when seconds are zero.
	ShortTimeLayout = "2006-01-02T15:04"
)

// Structural decode errors.
var (
	ErrTooFewFields = errors.New("too few fields")
	ErrInvalidID    = errors.New("invalid id")
)

// FormatError reports a line that cannot be decoded.
type FormatError struct {
	Line string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed line %q: %v", e.Line, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Escape prefixes backslashes and delimiters with a backslash and replaces
// line breaks with `\n` and `\r`. It works on bytes, so invalid UTF-8
// passes through untouched.
func Escape(s string) string {
	if !strings.ContainsAny(s, "\\,\n\r") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; ch {
		case EscapeChar, Delimiter:
			b.WriteByte(EscapeChar)
			b.WriteByte(ch)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// Encode renders c as a single line without a trailing newline.
func Encode(c call.Call) string {
	fields := []string{
		strconv.Itoa(c.ID),
		Escape(c.CallerName),
		Escape(c.ContactNumber),
		Escape(c.Description),
		Escape(c.RequiredServices),
		c.CreatedAt.Format(call.TimeLayout),
		string(c.Status),
	}
	return strings.Join(fields, string(Delimiter))
}

// Split breaks a line into unescaped fields in one left-to-right pass.
// A trailing lone backslash is kept as a literal.
func Split(line string) []string {
	var fields []string
	var cur strings.Builder
	escaped := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case escaped:
			cur.WriteByte(unescape(ch))
			escaped = false
		case ch == EscapeChar:
			escaped = true
		case ch == Delimiter:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	if escaped {
		cur.WriteByte(EscapeChar)
	}
	return append(fields, cur.String())
}

// unescape maps the byte after a backslash to the byte it stands for.
func unescape(ch byte) byte {
	switch ch {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	}
	return ch
}

// Decode parses a line produced by Encode. now supplies the fallback
// createdAt when the timestamp is missing or unparseable.
func Decode(line string, now func() time.Time) (call.Call, error) {
	fields := Split(line)
	if len(fields) < MinFields {
		return call.Call{}, &FormatError{Line: line, Err: fmt.Errorf("%w: got %d, want at least %d", ErrTooFewFields, len(fields), MinFields)}
	}

	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return call.Call{}, &FormatError{Line: line, Err: fmt.Errorf("%w: %q", ErrInvalidID, fields[0])}
	}
	if id <= 0 {
		return call.Call{}, &FormatError{Line: line, Err: fmt.Errorf("%w: %d is not positive", ErrInvalidID, id)}
	}

	c := call.Call{
		ID:               id,
		CallerName:       fields[1],
		ContactNumber:    fields[2],
		Description:      fields[3],
		RequiredServices: fields[4],
		Status:           call.StatusNew,
	}

	c.CreatedAt, _ = parseCreatedAt(fields, now)
	c.Status, _ = parseStatus(fields)
	return c, nil
}

// parseCreatedAt returns the fallback time and false when field 5 is absent
// or unparseable.
func parseCreatedAt(fields []string, now func() time.Time) (time.Time, bool) {
	if len(fields) > 5 {
		for _, layout := range []string{call.TimeLayout, ShortTimeLayout} {
			if ts, err := time.ParseInLocation(layout, fields[5], time.Local); err == nil {
				return ts, true
			}
		}
	}
	if now == nil {
		now = time.Now
	}
	return now().Truncate(time.Second), false
}

// parseStatus returns NEW and false when field 6 is absent or unknown.
func parseStatus(fields []string) (call.Status, bool) {
	if len(fields) > 6 {
		if s, err := call.ParseStatus(fields[6]); err == nil {
			return s, true
		}
	}
	return call.StatusNew, false
}

// Defaulted reports which lenient fields of line fell back to defaults.
// It is meant for diagnostics after a successful Decode.
func Defaulted(line string) (createdAt, status bool) {
	fields := Split(line)
	_, tsOK := parseCreatedAt(fields, func() time.Time { return time.Time{} })
	_, stOK := parseStatus(fields)
	return !tsOK, !stOK
}
