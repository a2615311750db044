package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	apperrors "github.com/pathshala/dataguard/internal/errors"
)

// entry is a typed value held by MemoryStore.
type entry struct {
	valueType string
	value     any
}

// MemoryStore implements Store with a mutex-guarded in-process map. It backs
// tests and serves as the degraded-mode fallback when the SQLite store cannot
// be opened: data written to it does not survive a process restart, but the
// layer keeps functioning.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry)}
}

func (m *MemoryStore) get(key, wantType string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, fmt.Sprintf("key %q", key))
	}
	if e.valueType != wantType {
		return nil, apperrors.Wrap(
			apperrors.ErrInvalidInput,
			fmt.Sprintf("key %q holds %s, not %s", key, e.valueType, wantType),
		)
	}
	return e.value, nil
}

func (m *MemoryStore) set(key, valueType string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{valueType: valueType, value: value}
}

// GetString returns the string stored under key.
func (m *MemoryStore) GetString(_ context.Context, key string) (string, error) {
	v, err := m.get(key, typeString)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// SetString stores a string under key.
func (m *MemoryStore) SetString(_ context.Context, key, value string) error {
	m.set(key, typeString, value)
	return nil
}

// GetBool returns the boolean stored under key.
func (m *MemoryStore) GetBool(_ context.Context, key string) (bool, error) {
	v, err := m.get(key, typeBool)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// SetBool stores a boolean under key.
func (m *MemoryStore) SetBool(_ context.Context, key string, value bool) error {
	m.set(key, typeBool, value)
	return nil
}

// GetInt returns the integer stored under key.
func (m *MemoryStore) GetInt(_ context.Context, key string) (int64, error) {
	v, err := m.get(key, typeInt)
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// SetInt stores an integer under key.
func (m *MemoryStore) SetInt(_ context.Context, key string, value int64) error {
	m.set(key, typeInt, value)
	return nil
}

// GetFloat returns the float stored under key.
func (m *MemoryStore) GetFloat(_ context.Context, key string) (float64, error) {
	v, err := m.get(key, typeFloat)
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// SetFloat stores a float under key.
func (m *MemoryStore) SetFloat(_ context.Context, key string, value float64) error {
	m.set(key, typeFloat, value)
	return nil
}

// GetStringList returns a copy of the string list stored under key.
func (m *MemoryStore) GetStringList(_ context.Context, key string) ([]string, error) {
	v, err := m.get(key, typeStringList)
	if err != nil {
		return nil, err
	}
	stored := v.([]string)
	values := make([]string, len(stored))
	copy(values, stored)
	return values, nil
}

// SetStringList stores a copy of the string list under key.
func (m *MemoryStore) SetStringList(_ context.Context, key string, values []string) error {
	stored := make([]string, len(values))
	copy(stored, values)
	m.set(key, typeStringList, stored)
	return nil
}

// Remove deletes a single key. Removing a missing key is not an error.
func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Clear deletes every key in the store.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]entry)
	return nil
}

// Keys returns every key currently present, sorted.
func (m *MemoryStore) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
