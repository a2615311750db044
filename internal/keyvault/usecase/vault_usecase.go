// Package usecase implements the secret-key lifecycle: creation, caching,
// rotation scheduling and secure erasure.
//
// The vault owns the reserved encryption-key slots of the persistent store.
// Its failure contract follows the rest of the layer: store unavailability
// degrades (logged, wrapped ErrStoreUnavailable) instead of crashing, and
// CurrentKey always returns usable key material even with the store down.
package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/pathshala/dataguard/internal/errors"
	vaultDomain "github.com/pathshala/dataguard/internal/keyvault/domain"
	"github.com/pathshala/dataguard/internal/store"
)

// Generator abstracts secret generation for the vault.
type Generator interface {
	Generate() (string, error)
}

// Vault manages the single symmetric secret of this installation.
//
// The secret is cached in memory after first load; within one process,
// rotation is read-after-write consistent for subsequent calls. Concurrent
// first-run EnsureKey/CurrentKey callers are collapsed through singleflight
// so exactly one secret is generated and persisted.
type Vault struct {
	store            store.Store
	generator        Generator
	logger           *slog.Logger
	rotationInterval time.Duration

	// now is the single authoritative clock, replaceable by tests.
	now func() time.Time

	mu     sync.Mutex
	cached *vaultDomain.Secret
	group  singleflight.Group
}

// NewVault creates a Vault on top of the given store. rotationInterval <= 0
// falls back to the 90-day default.
func NewVault(s store.Store, generator Generator, logger *slog.Logger, rotationInterval time.Duration) *Vault {
	if rotationInterval <= 0 {
		rotationInterval = vaultDomain.DefaultRotationInterval
	}
	return &Vault{
		store:            s,
		generator:        generator,
		logger:           logger,
		rotationInterval: rotationInterval,
		now:              time.Now,
	}
}

// EnsureKey guarantees a persisted secret exists, generating one on first
// run. Idempotent. With the store unavailable it logs and no-ops, returning
// a wrapped ErrStoreUnavailable so callers can observe the degradation.
func (v *Vault) EnsureKey(ctx context.Context) error {
	_, err, _ := v.group.Do("ensure", func() (any, error) {
		return nil, v.ensureLocked(ctx)
	})
	return err
}

// ensureLocked loads or creates the persisted secret and caches it. Must only
// run inside the singleflight group.
func (v *Vault) ensureLocked(ctx context.Context) error {
	v.mu.Lock()
	cached := v.cached
	v.mu.Unlock()
	if cached != nil && !cached.Ephemeral {
		return nil
	}

	secret, err := v.load(ctx)
	if err == nil {
		v.setCache(secret)
		return nil
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		v.logger.Warn("key vault: store unreadable, keeping current key state",
			slog.String("error", err.Error()))
		return err
	}

	return v.createAndPersist(ctx)
}

// CurrentKey returns the active secret, never empty. If the store is
// unavailable and no secret was ever loaded, a throwaway in-memory secret is
// generated and served with a wrapped ErrStoreUnavailable; encryption keeps
// working but ciphertext will not survive a restart.
func (v *Vault) CurrentKey(ctx context.Context) (string, error) {
	v.mu.Lock()
	cached := v.cached
	v.mu.Unlock()
	if cached != nil && !cached.Ephemeral {
		return cached.Value, nil
	}

	// No persisted secret loaded yet. The store is retried on every call so
	// an ephemeral secret is superseded as soon as the store recovers.
	if err := v.EnsureKey(ctx); err != nil {
		if cached != nil {
			return cached.Value, apperrors.Wrap(apperrors.ErrStoreUnavailable, "serving ephemeral key")
		}
		return v.ephemeralKey()
	}

	v.mu.Lock()
	cached = v.cached
	v.mu.Unlock()
	if cached == nil {
		// EnsureKey reported success but left no cache; should not happen.
		return v.ephemeralKey()
	}
	if cached.Ephemeral {
		return cached.Value, apperrors.Wrap(apperrors.ErrStoreUnavailable, "serving ephemeral key")
	}
	return cached.Value, nil
}

// NeedsRotation reports whether the secret is due for rotation: no creation
// timestamp is stored, the stored timestamp is unparseable, or the rotation
// interval has elapsed. A store read failure is logged and reported as no
// rotation needed, so a flaky store never triggers a lossy rotation.
func (v *Vault) NeedsRotation(ctx context.Context) bool {
	raw, err := v.store.GetString(ctx, vaultDomain.SlotCreatedAt)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return true
	}
	if err != nil {
		v.logger.Warn("key vault: cannot read key age", slog.String("error", err.Error()))
		return false
	}

	createdAt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return true
	}
	return v.now().Sub(createdAt) >= v.rotationInterval
}

// Rotate generates a fresh secret, persists it and replaces the cached value.
// All ciphertext produced under the previous secret becomes undecryptable;
// callers must re-encrypt data they still need. With the store unavailable
// the rotation is logged and skipped, leaving the current secret in place.
func (v *Vault) Rotate(ctx context.Context) error {
	_, err, _ := v.group.Do("rotate", func() (any, error) {
		return nil, v.createAndPersist(ctx)
	})
	return err
}

// Wipe removes the secret and its timestamp from the store and clears the
// in-memory cache. Used for account deletion alongside the consent ledger's
// EraseAll.
func (v *Vault) Wipe(ctx context.Context) error {
	keyErr := v.store.Remove(ctx, vaultDomain.SlotKey)
	tsErr := v.store.Remove(ctx, vaultDomain.SlotCreatedAt)

	v.mu.Lock()
	v.cached = nil
	v.mu.Unlock()

	if err := apperrors.Join(keyErr, tsErr); err != nil {
		v.logger.Warn("key vault: wipe incomplete", slog.String("error", err.Error()))
		return apperrors.Wrap(err, "failed to wipe key")
	}
	return nil
}

// Info returns the persisted secret's metadata without creating one.
func (v *Vault) Info(ctx context.Context) (vaultDomain.Secret, error) {
	return v.load(ctx)
}

// load reads the persisted secret and its creation timestamp.
func (v *Vault) load(ctx context.Context) (vaultDomain.Secret, error) {
	value, err := v.store.GetString(ctx, vaultDomain.SlotKey)
	if err != nil {
		return vaultDomain.Secret{}, err
	}

	secret := vaultDomain.Secret{Value: value}
	if raw, err := v.store.GetString(ctx, vaultDomain.SlotCreatedAt); err == nil {
		if createdAt, err := time.Parse(time.RFC3339, raw); err == nil {
			secret.CreatedAt = createdAt
		}
	}
	return secret, nil
}

// createAndPersist generates a fresh secret and writes it to the store, key
// first so a crash between the two writes never leaves a timestamp without a
// key. The cache is updated only after both writes succeed.
func (v *Vault) createAndPersist(ctx context.Context) error {
	value, err := v.generator.Generate()
	if err != nil {
		return err
	}

	if err := v.store.SetString(ctx, vaultDomain.SlotKey, value); err != nil {
		v.logger.Warn("key vault: cannot persist key", slog.String("error", err.Error()))
		return err
	}

	createdAt := v.now().UTC()
	if err := v.store.SetString(ctx, vaultDomain.SlotCreatedAt, createdAt.Format(time.RFC3339)); err != nil {
		v.logger.Warn("key vault: key persisted without timestamp",
			slog.String("error", err.Error()))
		// The key is durable; NeedsRotation will report true until the
		// timestamp lands on a later rotation.
	}

	v.setCache(vaultDomain.Secret{Value: value, CreatedAt: createdAt})
	return nil
}

// ephemeralKey generates, caches and serves a throwaway in-memory secret.
func (v *Vault) ephemeralKey() (string, error) {
	value, err := v.generator.Generate()
	if err != nil {
		return "", err
	}

	v.logger.Warn("key vault: store unavailable, using ephemeral in-memory key")
	v.setCache(vaultDomain.Secret{Value: value, CreatedAt: v.now().UTC(), Ephemeral: true})
	return value, apperrors.Wrap(apperrors.ErrStoreUnavailable, "serving ephemeral key")
}

func (v *Vault) setCache(secret vaultDomain.Secret) {
	v.mu.Lock()
	v.cached = &secret
	v.mu.Unlock()
}
