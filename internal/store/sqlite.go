package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	apperrors "github.com/pathshala/dataguard/internal/errors"
)

//go:embed migrations/sqlite/*.sql
var migrationsFS embed.FS

// Value type tags stored alongside each entry. Typed getters reject entries
// written with a different type.
const (
	typeString     = "string"
	typeBool       = "bool"
	typeInt        = "int"
	typeFloat      = "float"
	typeStringList = "string_list"
)

// SQLiteStore implements Store on a single-file SQLite database, the natural
// on-device substrate for an offline-first app. One row per key in a kv table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an existing database handle. Useful for tests that
// inject a mocked handle.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// OpenSQLiteStore opens (or creates) the store file at path and runs pending
// schema migrations.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, wrapUnavailable(err, "failed to open store")
	}
	// A mobile-style store is single-writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, wrapUnavailable(err, "failed to ping store")
	}

	s := &SQLiteStore{db: db}
	if err := s.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate applies the embedded schema migrations.
func (s *SQLiteStore) Migrate() error {
	source, err := iofs.New(migrationsFS, "migrations/sqlite")
	if err != nil {
		return apperrors.Wrap(err, "failed to load migrations")
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return wrapUnavailable(err, "failed to prepare migration driver")
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return apperrors.Wrap(err, "failed to create migrator")
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return wrapUnavailable(err, "failed to run migrations")
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// get reads the raw value for key, enforcing the stored type tag.
func (s *SQLiteStore) get(ctx context.Context, key, wantType string) (string, error) {
	var value, storedType string
	query := `SELECT value, type FROM kv WHERE key = ?`
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value, &storedType)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.Wrap(apperrors.ErrNotFound, fmt.Sprintf("key %q", key))
	}
	if err != nil {
		return "", wrapUnavailable(err, "failed to read key")
	}
	if storedType != wantType {
		return "", apperrors.Wrap(
			apperrors.ErrInvalidInput,
			fmt.Sprintf("key %q holds %s, not %s", key, storedType, wantType),
		)
	}
	return value, nil
}

// set upserts the raw value for key with its type tag.
func (s *SQLiteStore) set(ctx context.Context, key, valueType, value string) error {
	query := `INSERT INTO kv (key, type, value, updated_at) VALUES (?, ?, ?, ?)
			  ON CONFLICT(key) DO UPDATE SET type = excluded.type,
			                                 value = excluded.value,
			                                 updated_at = excluded.updated_at`
	_, err := s.db.ExecContext(ctx, query, key, valueType, value, time.Now().UTC())
	if err != nil {
		return wrapUnavailable(err, "failed to write key")
	}
	return nil
}

// GetString returns the string stored under key.
func (s *SQLiteStore) GetString(ctx context.Context, key string) (string, error) {
	return s.get(ctx, key, typeString)
}

// SetString stores a string under key.
func (s *SQLiteStore) SetString(ctx context.Context, key, value string) error {
	return s.set(ctx, key, typeString, value)
}

// GetBool returns the boolean stored under key.
func (s *SQLiteStore) GetBool(ctx context.Context, key string) (bool, error) {
	raw, err := s.get(ctx, key, typeBool)
	if err != nil {
		return false, err
	}
	return raw == "true", nil
}

// SetBool stores a boolean under key.
func (s *SQLiteStore) SetBool(ctx context.Context, key string, value bool) error {
	return s.set(ctx, key, typeBool, strconv.FormatBool(value))
}

// GetInt returns the integer stored under key.
func (s *SQLiteStore) GetInt(ctx context.Context, key string) (int64, error) {
	raw, err := s.get(ctx, key, typeInt)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, "corrupt integer value")
	}
	return value, nil
}

// SetInt stores an integer under key.
func (s *SQLiteStore) SetInt(ctx context.Context, key string, value int64) error {
	return s.set(ctx, key, typeInt, strconv.FormatInt(value, 10))
}

// GetFloat returns the float stored under key.
func (s *SQLiteStore) GetFloat(ctx context.Context, key string) (float64, error) {
	raw, err := s.get(ctx, key, typeFloat)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, "corrupt float value")
	}
	return value, nil
}

// SetFloat stores a float under key.
func (s *SQLiteStore) SetFloat(ctx context.Context, key string, value float64) error {
	return s.set(ctx, key, typeFloat, strconv.FormatFloat(value, 'g', -1, 64))
}

// GetStringList returns the string list stored under key.
func (s *SQLiteStore) GetStringList(ctx context.Context, key string) ([]string, error) {
	raw, err := s.get(ctx, key, typeStringList)
	if err != nil {
		return nil, err
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "corrupt string list value")
	}
	return values, nil
}

// SetStringList stores a string list under key.
func (s *SQLiteStore) SetStringList(ctx context.Context, key string, values []string) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "failed to encode string list")
	}
	return s.set(ctx, key, typeStringList, string(raw))
}

// Remove deletes a single key. Removing a missing key is not an error.
func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return wrapUnavailable(err, "failed to remove key")
	}
	return nil
}

// Clear deletes every key in the store.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv`)
	if err != nil {
		return wrapUnavailable(err, "failed to clear store")
	}
	return nil
}

// Keys returns every key currently present, sorted.
func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, wrapUnavailable(err, "failed to list keys")
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, wrapUnavailable(err, "failed to scan key")
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapUnavailable(err, "failed to iterate keys")
	}
	sort.Strings(keys)
	return keys, nil
}
