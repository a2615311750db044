package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pathshala/dataguard/internal/errors"
)

// Both implementations must satisfy the Store interface.
var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// newTestSQLiteStore opens a migrated store on a temp file that is removed
// with the test.
func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	s, err := OpenSQLiteStore(path)
	require.NoError(t, err, "failed to open sqlite store")
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// storeUnderTest runs the shared conformance suite against an implementation.
func storeUnderTest(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("string round-trip", func(t *testing.T) {
		require.NoError(t, s.SetString(ctx, "name", "Asha"))
		got, err := s.GetString(ctx, "name")
		require.NoError(t, err)
		assert.Equal(t, "Asha", got)
	})

	t.Run("bool round-trip", func(t *testing.T) {
		require.NoError(t, s.SetBool(ctx, "flag", true))
		got, err := s.GetBool(ctx, "flag")
		require.NoError(t, err)
		assert.True(t, got)
	})

	t.Run("int round-trip", func(t *testing.T) {
		require.NoError(t, s.SetInt(ctx, "count", -42))
		got, err := s.GetInt(ctx, "count")
		require.NoError(t, err)
		assert.Equal(t, int64(-42), got)
	})

	t.Run("float round-trip", func(t *testing.T) {
		require.NoError(t, s.SetFloat(ctx, "score", 99.5))
		got, err := s.GetFloat(ctx, "score")
		require.NoError(t, err)
		assert.Equal(t, 99.5, got)
	})

	t.Run("string list round-trip", func(t *testing.T) {
		require.NoError(t, s.SetStringList(ctx, "list", []string{"a", "b"}))
		got, err := s.GetStringList(ctx, "list")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, got)
	})

	t.Run("missing key returns ErrNotFound", func(t *testing.T) {
		_, err := s.GetString(ctx, "no-such-key")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("type mismatch returns ErrInvalidInput", func(t *testing.T) {
		require.NoError(t, s.SetBool(ctx, "typed", true))
		_, err := s.GetString(ctx, "typed")
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("overwrite replaces value and type", func(t *testing.T) {
		require.NoError(t, s.SetString(ctx, "mut", "before"))
		require.NoError(t, s.SetInt(ctx, "mut", 7))
		got, err := s.GetInt(ctx, "mut")
		require.NoError(t, err)
		assert.Equal(t, int64(7), got)
	})

	t.Run("remove deletes key, missing key is a no-op", func(t *testing.T) {
		require.NoError(t, s.SetString(ctx, "gone", "x"))
		require.NoError(t, s.Remove(ctx, "gone"))
		_, err := s.GetString(ctx, "gone")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		assert.NoError(t, s.Remove(ctx, "gone"))
	})

	t.Run("keys are sorted", func(t *testing.T) {
		require.NoError(t, s.Clear(ctx))
		require.NoError(t, s.SetString(ctx, "b", "2"))
		require.NoError(t, s.SetString(ctx, "a", "1"))
		keys, err := s.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, keys)
	})

	t.Run("clear removes everything", func(t *testing.T) {
		require.NoError(t, s.SetString(ctx, "k", "v"))
		require.NoError(t, s.Clear(ctx))
		keys, err := s.Keys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}

func TestSQLiteStore(t *testing.T) {
	storeUnderTest(t, newTestSQLiteStore(t))
}

func TestMemoryStore(t *testing.T) {
	storeUnderTest(t, NewMemoryStore())
}

func TestSQLiteStore_Persistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	s, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SetString(ctx, "durable", "yes"))
	require.NoError(t, s.Close())

	reopened, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.GetString(ctx, "durable")
	require.NoError(t, err)
	assert.Equal(t, "yes", got)
}

func TestSQLiteStore_Unavailable(t *testing.T) {
	ctx := context.Background()

	t.Run("read failure wraps ErrStoreUnavailable", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectQuery("SELECT value, type FROM kv").
			WillReturnError(assert.AnError)

		s := NewSQLiteStore(db)
		_, err = s.GetString(ctx, "any")
		assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("write failure wraps ErrStoreUnavailable", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectExec("INSERT INTO kv").
			WillReturnError(assert.AnError)

		s := NewSQLiteStore(db)
		err = s.SetString(ctx, "any", "value")
		assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("clear failure wraps ErrStoreUnavailable", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectExec("DELETE FROM kv").
			WillReturnError(assert.AnError)

		s := NewSQLiteStore(db)
		assert.ErrorIs(t, s.Clear(ctx), apperrors.ErrStoreUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
