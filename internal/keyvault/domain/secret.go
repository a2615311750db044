// Package domain defines the secret-key model for the on-device key vault.
//
// Exactly one active secret exists per installation. Rotation replaces it
// atomically; ciphertext produced under the old secret becomes unreadable,
// an accepted tradeoff of the lossy rotation design.
package domain

import "time"

// Reserved store slots owned by the key vault. UI-layer code must not touch
// these keys.
const (
	// SlotKey holds the active secret.
	SlotKey = "encryption_key"
	// SlotCreatedAt holds the secret's creation timestamp (RFC 3339).
	// Always written after SlotKey so a crash between the two writes leaves
	// a usable key with an unknown age, never a timestamp without a key.
	SlotCreatedAt = "key_created_at"
)

// KeyLength is the nominal length of a secret in characters.
const KeyLength = 32

// KeyAlphabet is the fixed set of characters a secret is drawn from. The
// alphabet is base64-safe so secrets survive any string-typed store.
const KeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// DefaultRotationInterval is how long a secret stays current before the
// vault reports it due for rotation.
const DefaultRotationInterval = 90 * 24 * time.Hour

// Secret is the symmetric key material plus its provenance. Ephemeral
// secrets exist only in memory: they are generated when the store is
// unreadable so encryption keeps working in degraded mode, and they are
// superseded as soon as a persisted secret becomes available.
type Secret struct {
	Value     string
	CreatedAt time.Time
	Ephemeral bool
}

// Age reports how long ago the secret was created.
func (s Secret) Age(now time.Time) time.Duration {
	return now.Sub(s.CreatedAt)
}
