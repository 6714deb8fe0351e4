package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matsen/calldesk/internal/call"
	"github.com/matsen/calldesk/internal/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var testNow = time.Date(2024, 3, 11, 14, 5, 30, 0, time.Local)

// setupTestStore returns a loaded, empty store in a temp directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "calls.txt"), WithClock(func() time.Time { return testNow }))
	_, err := s.Load()
	require.NoError(t, err)
	return s
}

// writeDataFile writes lines to a fresh data file and returns its path.
func writeDataFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calls.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func ids(calls []call.Call) []int {
	out := make([]int, len(calls))
	for i, c := range calls {
		out[i] = c.ID
	}
	return out
}

func TestEndToEnd(t *testing.T) {
	s := setupTestStore(t)

	c, err := s.Create("Ann", "5551234", "fire in kitchen", "fire")
	require.NoError(t, err)
	assert.Equal(t, 1, c.ID)
	assert.Equal(t, call.StatusNew, c.Status)
	assert.True(t, c.CreatedAt.Equal(testNow))

	removed, err := s.Delete(1)
	require.NoError(t, err)
	assert.True(t, removed)

	_, found := s.Get(1)
	assert.False(t, found)

	c, err = s.Create("Bob", "5550000", "flood", "rescue")
	require.NoError(t, err)
	assert.Equal(t, 2, c.ID, "deleted id must not be reused")
}

func TestCreate_ContiguousIDs(t *testing.T) {
	s := setupTestStore(t)
	for i := 1; i <= 5; i++ {
		c, err := s.Create("Caller", "12345", "desc", "police")
		require.NoError(t, err)
		assert.Equal(t, i, c.ID)
	}

	_, err := s.Delete(3)
	require.NoError(t, err)
	c, err := s.Create("Caller", "12345", "desc", "police")
	require.NoError(t, err)
	assert.Equal(t, 6, c.ID)
	assert.Equal(t, []int{1, 2, 4, 5, 6}, ids(s.List()))
}

func TestCreate_PersistsEachMutation(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.Create("Doe, Jane", "911", `C:\logs`, "fire, police")
	require.NoError(t, err)

	lines := readLines(t, s.Path())
	require.Len(t, lines, 1)
	assert.Equal(t, `1,Doe\, Jane,911,C:\\logs,fire\, police,2024-03-11T14:05:30,NEW`, lines[0])

	reopened := New(s.Path())
	res, err := reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, res.Loaded)
	got, ok := reopened.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Doe, Jane", got.CallerName)
	assert.Equal(t, `C:\logs`, got.Description)
}

func TestCreate_Validation(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Create("Ann", "55-12", "x", "fire")
	assert.ErrorIs(t, err, call.ErrInvalidContact)
	assert.True(t, call.IsValidationError(err))
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, readLines(t, s.Path()))
}

func TestGet_ReturnsCopy(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.Create("Ann", "5551234", "fire", "fire")
	require.NoError(t, err)

	c, ok := s.Get(1)
	require.True(t, ok)
	c.CallerName = "Mallory"

	again, _ := s.Get(1)
	assert.Equal(t, "Ann", again.CallerName)
}

func TestUpdate(t *testing.T) {
	s := setupTestStore(t)
	orig, err := s.Create("Ann", "5551234", "fire", "fire")
	require.NoError(t, err)

	name := "Ann Smith"
	st := call.StatusResolved
	got, err := s.Update(1, call.Patch{CallerName: &name, Status: &st})
	require.NoError(t, err)
	assert.Equal(t, "Ann Smith", got.CallerName)
	assert.Equal(t, call.StatusResolved, got.Status)
	assert.True(t, got.CreatedAt.Equal(orig.CreatedAt))

	// Visible through list and search immediately.
	assert.Equal(t, "Ann Smith", s.List()[0].CallerName)
	assert.Len(t, s.SearchByName("smith"), 1)

	// And persisted.
	assert.Contains(t, readLines(t, s.Path())[0], "Ann Smith")
	assert.Contains(t, readLines(t, s.Path())[0], "RESOLVED")
}

func TestUpdate_InvalidLeavesRecordUntouched(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.Create("Ann", "5551234", "fire", "fire")
	require.NoError(t, err)

	name := "Changed"
	phone := "abc"
	_, err = s.Update(1, call.Patch{CallerName: &name, ContactNumber: &phone})
	require.Error(t, err)
	assert.ErrorIs(t, err, call.ErrInvalidContact)

	got, _ := s.Get(1)
	assert.Equal(t, "Ann", got.CallerName)
	assert.Equal(t, "5551234", got.ContactNumber)
}

func TestUpdate_NotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.Update(9, call.Patch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_Unknown(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.Create("Ann", "5551234", "fire", "fire")
	require.NoError(t, err)

	removed, err := s.Delete(42)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 1, s.Len())
}

func TestSearch(t *testing.T) {
	s := setupTestStore(t)
	for _, in := range []struct{ name, phone string }{
		{"John Doe", "5551234"},
		{"Mary Jones", "4441234"},
		{"Bob", "999"},
	} {
		_, err := s.Create(in.name, in.phone, "desc", "ems")
		require.NoError(t, err)
	}

	assert.Equal(t, []int{1, 2}, ids(s.SearchByName("jo")))
	assert.Equal(t, []int{1}, ids(s.SearchByName("JOHN")))
	assert.Equal(t, []int{1, 2}, ids(s.SearchByPhone("1234")))
	assert.Equal(t, []int{3}, ids(s.SearchByPhone("99")))

	none := s.SearchByName("zelda")
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestLoad_MissingFileCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "calls.txt")
	s := New(path)

	res, err := s.Load()
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, 0, s.Len())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())
}

func TestLoad_TolerantShortLine(t *testing.T) {
	path := writeDataFile(t, "7,Ann,5551234,fire in kitchen,fire")
	s := New(path, WithClock(func() time.Time { return testNow }))

	res, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, res.Loaded)

	c, ok := s.Get(7)
	require.True(t, ok)
	assert.Equal(t, call.StatusNew, c.Status)
	assert.True(t, c.CreatedAt.Equal(testNow))
}

func TestLoad_SkipsBadLines(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	path := writeDataFile(t,
		"1,Ann,555,a,fire,2024-03-11T14:05:30,NEW",
		"abc,Bad,555,a,fire",
		"",
		"   ",
		"2,Bob,666,b,police,2024-03-11T14:06:00,IN_PROGRESS",
		"3,only,three",
		"4,Cat,777,c,ems,2024-03-11T14:07:00,RESOLVED",
	)
	s := New(path, WithLogger(zap.New(core)))

	res, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 3, res.Loaded)
	assert.Equal(t, []int{1, 2, 4}, ids(s.List()))

	require.Len(t, res.Skipped, 2)
	assert.Equal(t, 2, res.Skipped[0].LineNum)
	assert.Equal(t, 6, res.Skipped[1].LineNum)

	skipped := logs.FilterMessage("skipping bad line").All()
	require.Len(t, skipped, 2)
	assert.Equal(t, int64(2), skipped[0].ContextMap()["line"])
}

func TestLoad_NextIDFollowsFile(t *testing.T) {
	path := writeDataFile(t,
		"10,Ann,555,a,fire,2024-03-11T14:05:30,NEW",
		"4,Bob,666,b,police,2024-03-11T14:06:00,NEW",
	)
	s := New(path)
	_, err := s.Load()
	require.NoError(t, err)

	c, err := s.Create("Cat", "777", "c", "ems")
	require.NoError(t, err)
	assert.Equal(t, 11, c.ID)
	assert.Equal(t, []int{10, 4, 11}, ids(s.List()))
}

func TestLoad_DuplicateIDKeepsFirstPosition(t *testing.T) {
	path := writeDataFile(t,
		"1,Ann,555,a,fire,2024-03-11T14:05:30,NEW",
		"2,Bob,666,b,police,2024-03-11T14:06:00,NEW",
		"1,Ann Updated,555,a,fire,2024-03-11T14:05:30,RESOLVED",
	)
	s := New(path)
	res, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 2, res.Loaded)

	list := s.List()
	assert.Equal(t, []int{1, 2}, ids(list))
	assert.Equal(t, "Ann Updated", list[0].CallerName)
}

func TestLoad_ClearsPreviousState(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.Create("Ann", "5551234", "fire", "fire")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(s.Path(), nil, 0644))
	_, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestLoad_ReadErrorStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	s := New(dir) // a directory cannot be read as lines

	_, err := s.Load()
	assert.Error(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestSave_FailureKeepsMemoryState(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	path := filepath.Join(t.TempDir(), "gone", "calls.txt")
	s := New(path, WithLogger(zap.New(core)))

	c, err := s.Create("Ann", "5551234", "fire", "fire")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotPersisted))
	assert.Equal(t, 1, c.ID)

	got, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Ann", got.CallerName)
	assert.Equal(t, 1, logs.FilterMessage("could not save data file").Len())
}

func TestSave_RoundTripsThroughCodec(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.Create(`Back\slash, Comma`, "123", `a\,b`, "x")
	require.NoError(t, err)

	for _, line := range readLines(t, s.Path()) {
		c, err := codec.Decode(line, nil)
		require.NoError(t, err)
		assert.Equal(t, `Back\slash, Comma`, c.CallerName)
		assert.Equal(t, `a\,b`, c.Description)
	}
}

func TestLoad_SkipsOverlongLine(t *testing.T) {
	long := "2,Bob,666," + strings.Repeat("x", MaxLineCapacity+100) + ",police"
	path := writeDataFile(t,
		"1,Ann,555,a,fire,2024-03-11T14:05:30,NEW",
		long,
		"3,Cat,777,c,ems,2024-03-11T14:07:00,RESOLVED",
	)
	s := New(path)

	res, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, ids(s.List()))
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 2, res.Skipped[0].LineNum)
	assert.Contains(t, res.Skipped[0].Reason, ErrLineTooLong.Error())
}

func TestLoad_LastLineWithoutNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.txt")
	require.NoError(t, os.WriteFile(path, []byte("1,Ann,555,a,fire\r\n2,Bob,666,b,police"), 0644))
	s := New(path)

	res, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, res.Loaded)
	assert.Equal(t, []int{1, 2}, ids(s.List()))
}

func TestCreate_LineBreaksSurviveReload(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.Create("Ann\nLee", "5551234", "smoke\r\nthen flames", "fire")
	require.NoError(t, err)
	assert.Len(t, readLines(t, s.Path()), 1)

	reloaded := New(s.Path())
	res, err := reloaded.Load()
	require.NoError(t, err)
	assert.Empty(t, res.Skipped)

	got, ok := reloaded.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Ann\nLee", got.CallerName)
	assert.Equal(t, "smoke\r\nthen flames", got.Description)
}
