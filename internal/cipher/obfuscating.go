package cipher

import (
	"encoding/base64"

	apperrors "github.com/pathshala/dataguard/internal/errors"
)

// ObfuscatingCodec XORs plaintext with the key cycled to its length and
// base64-encodes the result. The transform is length-preserving and
// self-inverse: Decode(Encode(p, k), k) == p for any key. NOT authenticated
// encryption; see the package comment.
type ObfuscatingCodec struct{}

// NewObfuscatingCodec creates the legacy obfuscating codec.
func NewObfuscatingCodec() *ObfuscatingCodec {
	return &ObfuscatingCodec{}
}

// Encode obfuscates plaintext under key. Empty input yields empty output.
// An empty key cannot be applied; the plaintext is returned unchanged with a
// wrapped ErrInvalidInput (graceful degradation, data stays usable).
func (c *ObfuscatingCodec) Encode(plaintext, key string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	if key == "" {
		return plaintext, apperrors.Wrap(apperrors.ErrInvalidInput, "empty key")
	}
	return base64.StdEncoding.EncodeToString(xorCycle([]byte(plaintext), key)), nil
}

// Decode reverses Encode. Input that is not valid base64 (foreign data or
// plaintext that was never encoded) is returned unchanged with a wrapped
// ErrInvalidInput. Decoding with a different key succeeds and yields garbage;
// the transform carries no integrity tag.
func (c *ObfuscatingCodec) Decode(ciphertext, key string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	if key == "" {
		return ciphertext, apperrors.Wrap(apperrors.ErrInvalidInput, "empty key")
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return ciphertext, apperrors.Wrap(apperrors.ErrInvalidInput, "not a ciphertext envelope")
	}
	return string(xorCycle(raw, key)), nil
}

// xorCycle combines data with key repeated to data's length.
func xorCycle(data []byte, key string) []byte {
	out := make([]byte, len(data))
	for i := range data {
		out[i] = data[i] ^ key[i%len(key)]
	}
	return out
}
