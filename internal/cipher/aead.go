package cipher

import (
	stdcipher "crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/chacha20poly1305"

	apperrors "github.com/pathshala/dataguard/internal/errors"
)

// AEADCodec implements Codec with ChaCha20-Poly1305. The vault secret is a
// printable string, not uniform bytes, so the 256-bit cipher key is derived
// from it with SHA-256. A random nonce is prefixed to the sealed bytes and
// the whole envelope is base64-encoded.
//
// ChaCha20-Poly1305 is chosen over AES-GCM because mobile-class CPUs often
// lack AES hardware acceleration.
//
// Unlike ObfuscatingCodec, Decode fails closed: a wrong key or a tampered
// envelope returns the input unchanged with a wrapped ErrInvalidInput rather
// than garbage plaintext.
type AEADCodec struct{}

// NewAEADCodec creates the authenticated codec.
func NewAEADCodec() *AEADCodec {
	return &AEADCodec{}
}

// Encode seals plaintext under key. Empty input yields empty output.
func (c *AEADCodec) Encode(plaintext, key string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	aead, err := newAEAD(key)
	if err != nil {
		return plaintext, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return plaintext, apperrors.Wrap(err, "failed to generate nonce")
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decode opens a sealed envelope produced by Encode, verifying the Poly1305
// tag before returning plaintext.
func (c *AEADCodec) Decode(ciphertext, key string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	aead, err := newAEAD(key)
	if err != nil {
		return ciphertext, err
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil || len(raw) < aead.NonceSize() {
		return ciphertext, apperrors.Wrap(apperrors.ErrInvalidInput, "not a ciphertext envelope")
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return ciphertext, apperrors.Wrap(apperrors.ErrInvalidInput, "decryption failed")
	}
	return string(plaintext), nil
}

// newAEAD derives the cipher key from the vault secret and builds the AEAD.
func newAEAD(key string) (stdcipher.AEAD, error) {
	if key == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "empty key")
	}
	derived := sha256.Sum256([]byte(key))
	return chacha20poly1305.New(derived[:])
}
