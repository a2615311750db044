package commands

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	consentDomain "github.com/pathshala/dataguard/internal/consent/domain"
	"github.com/pathshala/dataguard/internal/store"
)

// setupEnv points the commands at a fresh store under a temp directory.
func setupEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataguard.db")
	t.Setenv("STORE_PATH", path)
	t.Setenv("LOG_LEVEL", "error")
	return path
}

func testIO(input string) (IOTuple, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return IOTuple{Reader: strings.NewReader(input), Writer: out}, out
}

func TestRunMigrations(t *testing.T) {
	path := setupEnv(t)
	io, out := testIO("")

	require.NoError(t, RunMigrations(io))
	assert.Contains(t, out.String(), path)
}

func TestRunKeyStatus(t *testing.T) {
	ctx := t.Context()

	t.Run("no key yet", func(t *testing.T) {
		setupEnv(t)
		io, out := testIO("")

		require.NoError(t, RunKeyStatus(ctx, io))
		assert.Contains(t, out.String(), "No encryption key present")
	})

	t.Run("after rotation", func(t *testing.T) {
		path := setupEnv(t)

		io, _ := testIO("")
		require.NoError(t, RunRotateKey(ctx, io))

		io, out := testIO("")
		require.NoError(t, RunKeyStatus(ctx, io))
		assert.Contains(t, out.String(), "Age:")
		assert.Contains(t, out.String(), "Needs rotation: false")

		// The raw key never appears unmasked.
		st, err := store.OpenSQLiteStore(path)
		require.NoError(t, err)
		defer st.Close()
		key, err := st.GetString(ctx, "encryption_key")
		require.NoError(t, err)
		assert.NotContains(t, out.String(), key)
	})
}

func TestRunConsentStatus(t *testing.T) {
	setupEnv(t)
	io, out := testIO("")

	require.NoError(t, RunConsentStatus(t.Context(), io))
	assert.Contains(t, out.String(), string(consentDomain.StateNoConsent))
}

func TestRunExportData(t *testing.T) {
	ctx := t.Context()
	path := setupEnv(t)

	st, err := store.OpenSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, st.SetString(ctx, "display_name", "Asha"))
	require.NoError(t, st.Close())

	t.Run("to stdout", func(t *testing.T) {
		io, out := testIO("")
		require.NoError(t, RunExportData(ctx, "", io))

		var export consentDomain.Export
		require.NoError(t, json.Unmarshal(out.Bytes(), &export))
		assert.Equal(t, consentDomain.ExportFormatVersion, export.FormatVersion)
		assert.Equal(t, "Asha", export.UserData["display_name"])
	})

	t.Run("to file", func(t *testing.T) {
		outputPath := filepath.Join(t.TempDir(), "export.json")
		io, out := testIO("")

		require.NoError(t, RunExportData(ctx, outputPath, io))
		assert.Contains(t, out.String(), outputPath)
		assert.FileExists(t, outputPath)
	})
}

func TestRunEraseAll(t *testing.T) {
	ctx := t.Context()

	t.Run("confirmed via flag", func(t *testing.T) {
		path := setupEnv(t)

		st, err := store.OpenSQLiteStore(path)
		require.NoError(t, err)
		require.NoError(t, st.SetString(ctx, "display_name", "Asha"))
		require.NoError(t, st.Close())

		io, out := testIO("")
		require.NoError(t, RunEraseAll(ctx, true, io))
		assert.Contains(t, out.String(), "erased")

		st, err = store.OpenSQLiteStore(path)
		require.NoError(t, err)
		defer st.Close()
		keys, err := st.Keys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("aborted at the prompt", func(t *testing.T) {
		path := setupEnv(t)

		st, err := store.OpenSQLiteStore(path)
		require.NoError(t, err)
		require.NoError(t, st.SetString(ctx, "display_name", "Asha"))
		require.NoError(t, st.Close())

		io, out := testIO("no\n")
		require.NoError(t, RunEraseAll(ctx, false, io))
		assert.Contains(t, out.String(), "Aborted")

		st, err = store.OpenSQLiteStore(path)
		require.NoError(t, err)
		defer st.Close()
		_, err = st.GetString(ctx, "display_name")
		assert.NoError(t, err)
	})
}

func TestRunPruneAccessLog(t *testing.T) {
	setupEnv(t)
	io, out := testIO("")

	require.NoError(t, RunPruneAccessLog(t.Context(), 30, io))
	assert.Contains(t, out.String(), "Removed 0 access log entries")
}
