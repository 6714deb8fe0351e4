// Package store holds call records in memory and persists them to a flat
// text file, one record per line.
//
// The whole file is read by Load and rewritten by Save; every mutating
// operation saves. A Store is not safe for concurrent use.
package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matsen/calldesk/internal/call"
	"go.uber.org/zap"
)

// Store errors.
var (
	// ErrNotFound indicates no live record has the requested id.
	ErrNotFound = errors.New("call not found")

	// ErrNotPersisted indicates a mutation applied in memory could not be
	// written to the backing file.
	ErrNotPersisted = errors.New("change not persisted")
)

// Store is an insertion-ordered collection of calls keyed by id.
type Store struct {
	path   string
	byID   map[int]*call.Call
	order  []int
	lastID int // highest id seen this session; ids are never handed out twice
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load and save diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an empty store backed by the file at path.
// Call Load before any other operation.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:   path,
		byID:   make(map[int]*call.Call),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of live records.
func (s *Store) Len() int {
	return len(s.order)
}

// clock returns the current time at the file's one-second resolution.
func (s *Store) clock() time.Time {
	return s.now().Truncate(time.Second)
}

// put inserts c, or replaces the record with the same id in place.
// It reports whether an existing record was replaced.
func (s *Store) put(c call.Call) bool {
	if existing, ok := s.byID[c.ID]; ok {
		*existing = c
		return true
	}
	s.byID[c.ID] = &c
	s.order = append(s.order, c.ID)
	if c.ID > s.lastID {
		s.lastID = c.ID
	}
	return false
}

func (s *Store) reset() {
	s.byID = make(map[int]*call.Call)
	s.order = nil
	s.lastID = 0
}

// nextID returns one past the highest id seen, so a deleted id is not
// reassigned while the store is open.
func (s *Store) nextID() int {
	return s.lastID + 1
}

// Create validates the fields, assigns the next id, inserts a NEW call and
// saves. If only the save fails, the created call is returned together with
// an error wrapping ErrNotPersisted.
func (s *Store) Create(name, contact, description, services string) (call.Call, error) {
	if err := call.ValidateForCreate(name, contact, description, services); err != nil {
		return call.Call{}, err
	}

	c := call.Call{
		ID:               s.nextID(),
		CallerName:       name,
		ContactNumber:    contact,
		Description:      description,
		RequiredServices: services,
		CreatedAt:        s.clock(),
		Status:           call.StatusNew,
	}
	s.put(c)

	s.logger.Debug("created call", zap.Int("id", c.ID))
	return c, s.Save()
}

// Get returns a copy of the call with the given id.
func (s *Store) Get(id int) (call.Call, bool) {
	c, ok := s.byID[id]
	if !ok {
		return call.Call{}, false
	}
	return *c, true
}

// Update validates every field set in p and applies them all, or none.
// The updated call is returned; a save failure wraps ErrNotPersisted.
func (s *Store) Update(id int, p call.Patch) (call.Call, error) {
	existing, ok := s.byID[id]
	if !ok {
		return call.Call{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err := p.Validate(); err != nil {
		return *existing, err
	}
	if p.IsEmpty() {
		return *existing, nil
	}

	*existing = p.Apply(*existing)
	s.logger.Debug("updated call", zap.Int("id", id))
	return *existing, s.Save()
}

// Delete removes the call with the given id and saves. It reports whether a
// call was removed; nothing is written when the id is unknown.
func (s *Store) Delete(id int) (bool, error) {
	if _, ok := s.byID[id]; !ok {
		return false, nil
	}
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	s.logger.Debug("deleted call", zap.Int("id", id))
	return true, s.Save()
}

// List returns copies of all calls in insertion order.
func (s *Store) List() []call.Call {
	return s.filter(func(call.Call) bool { return true })
}

// SearchByName returns calls whose caller name contains sub, ignoring case.
func (s *Store) SearchByName(sub string) []call.Call {
	q := strings.ToLower(sub)
	return s.filter(func(c call.Call) bool {
		return strings.Contains(strings.ToLower(c.CallerName), q)
	})
}

// SearchByPhone returns calls whose contact number contains sub, ignoring case.
func (s *Store) SearchByPhone(sub string) []call.Call {
	q := strings.ToLower(sub)
	return s.filter(func(c call.Call) bool {
		return strings.Contains(strings.ToLower(c.ContactNumber), q)
	})
}

func (s *Store) filter(keep func(call.Call) bool) []call.Call {
	out := make([]call.Call, 0, len(s.order))
	for _, id := range s.order {
		if c := *s.byID[id]; keep(c) {
			out = append(out, c)
		}
	}
	return out
}
