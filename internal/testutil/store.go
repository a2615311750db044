// Package testutil provides shared helpers for tests that need a real
// on-disk store or a quiet logger.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pathshala/dataguard/internal/store"
)

// NewLogger returns a logger that discards all output.
func NewLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SetupSQLiteStore opens a migrated SQLite store backed by a file in a
// per-test temp directory. The store is closed when the test finishes.
func SetupSQLiteStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "dataguard.db")
	st, err := store.OpenSQLiteStore(path)
	require.NoError(t, err, "failed to open sqlite store")

	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})
	return st
}
