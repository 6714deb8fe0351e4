package call

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a call.
type Status string

// Status constants. The string values are what the data file stores.
const (
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
)

// Statuses lists every known status in lifecycle order.
var Statuses = []Status{StatusNew, StatusInProgress, StatusResolved}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus parses an exact, case-sensitive status name.
func ParseStatus(name string) (Status, error) {
	s := Status(name)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, name)
	}
	return s, nil
}

// ParseStatusFold accepts user input in any case, ignoring surrounding space.
func ParseStatusFold(name string) (Status, error) {
	return ParseStatus(strings.ToUpper(strings.TrimSpace(name)))
}
