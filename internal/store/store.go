// Package store provides the persistent key-value substrate for the
// data-protection layer. The store is string-keyed and typed (strings,
// booleans, integers, floats and string lists), crash-consistent but not
// transactional across keys: callers must order writes so partial failure
// leaves recoverable state (e.g. persist a key before its timestamp).
package store

import (
	"context"

	apperrors "github.com/pathshala/dataguard/internal/errors"
)

// Store abstracts the on-device persistent key-value store used by the
// key vault and the consent ledger.
//
// Implementations must return errors.ErrNotFound for missing keys and wrap
// I/O failures with errors.ErrStoreUnavailable so callers can degrade
// instead of crashing.
type Store interface {
	GetString(ctx context.Context, key string) (string, error)
	SetString(ctx context.Context, key, value string) error
	GetBool(ctx context.Context, key string) (bool, error)
	SetBool(ctx context.Context, key string, value bool) error
	GetInt(ctx context.Context, key string) (int64, error)
	SetInt(ctx context.Context, key string, value int64) error
	GetFloat(ctx context.Context, key string) (float64, error)
	SetFloat(ctx context.Context, key string, value float64) error
	GetStringList(ctx context.Context, key string) ([]string, error)
	SetStringList(ctx context.Context, key string, values []string) error

	// Remove deletes a single key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	// Clear deletes every key in the store. Total and unrecoverable.
	Clear(ctx context.Context) error
	// Keys returns every key currently present, sorted.
	Keys(ctx context.Context) ([]string, error)
}

// wrapUnavailable tags a driver error with ErrStoreUnavailable while keeping
// the original cause in the chain.
func wrapUnavailable(err error, message string) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.Join(apperrors.ErrStoreUnavailable, err), message)
}
