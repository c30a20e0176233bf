package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/crewtool/internal/crew"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func intPtr(i int) *int { return &i }

func TestOpenSQLiteBootstrapsTables(t *testing.T) {
	t.Parallel()

	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var name string
	require.NoError(t, db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='invocations';").Scan(&name))

	// Bootstrapping twice is harmless.
	require.NoError(t, BootstrapSQLite(context.Background(), db))
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "")
	require.Error(t, err)
}

func TestRecordAndGet(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	req := crew.Request{ID: "inv-1", Package: "otterfall", Crew: "game_builder", Input: "secret prompt"}
	res := crew.Result{Success: false, Output: "partial", Error: "boom", Category: crew.CategoryCrew, ExitCode: intPtr(1), DurationMs: 42}

	recorded, err := s.Record(ctx, req, res)
	require.NoError(t, err)
	assert.Equal(t, "inv-1", recorded.ID)
	assert.Equal(t, Digest("partial"), recorded.OutputDigest)
	assert.Equal(t, len("partial"), recorded.OutputBytes)

	got, err := s.Get(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "otterfall", got.Package)
	assert.Equal(t, "game_builder", got.Crew)
	assert.False(t, got.Success)
	assert.Equal(t, crew.CategoryCrew, got.Category)
	require.NotNil(t, got.ExitCode)
	assert.Equal(t, 1, *got.ExitCode)
	assert.Equal(t, int64(42), got.DurationMs)
	assert.Equal(t, "boom", got.Error)
	assert.True(t, fixed.Equal(got.CreatedAt), "created_at = %v", got.CreatedAt)
}

func TestRecord_GeneratesIDAndKeepsNilExitCode(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	e, err := s.Record(ctx, crew.Request{Package: "p", Crew: "c"}, crew.Result{Error: "missing", Category: crew.CategoryNotInstalled})
	require.NoError(t, err)
	require.NotEmpty(t, e.ID)

	got, err := s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ExitCode)
	assert.Equal(t, crew.CategoryNotInstalled, got.Category)
}

func TestRecord_DuplicateID(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	req := crew.Request{ID: "dup", Package: "p", Crew: "c"}
	_, err := s.Record(ctx, req, crew.Result{Success: true})
	require.NoError(t, err)
	_, err = s.Record(ctx, req, crew.Result{Success: true})
	require.Error(t, err)
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecent(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, offset := range []time.Duration{0, 100 * time.Millisecond, 120 * time.Millisecond, time.Second} {
		at := base.Add(offset)
		s.now = func() time.Time { return at }
		_, err := s.Record(ctx, crew.Request{ID: string(rune('a' + i)), Package: "p", Crew: "c"}, crew.Result{Success: true})
		require.NoError(t, err)
	}

	entries, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"d", "c", "b"}, ids)

	all, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestRecent_Empty(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	entries, err := s.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestDigest(t *testing.T) {
	assert.Equal(t, Digest("x"), Digest("x"))
	assert.NotEqual(t, Digest("x"), Digest("y"))
	assert.Len(t, Digest(""), len("blake3:")+64)
}
