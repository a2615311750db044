package cipher

import (
	"encoding/json"

	apperrors "github.com/pathshala/dataguard/internal/errors"
)

// StructuredCodec encrypts and decrypts key-value structures by running
// their JSON form through an underlying Codec.
type StructuredCodec struct {
	codec Codec
}

// NewStructuredCodec wraps a Codec for structured values.
func NewStructuredCodec(codec Codec) *StructuredCodec {
	return &StructuredCodec{codec: codec}
}

// Encode serializes value to JSON and encodes it under key.
// A value that cannot be marshaled yields an empty envelope with a wrapped
// ErrInvalidInput.
func (c *StructuredCodec) Encode(value map[string]any, key string) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, "failed to serialize value")
	}
	return c.codec.Encode(string(raw), key)
}

// Decode reverses Encode. Unlike the plain codec, any failure (undecodable
// envelope, wrong key, garbage JSON) returns an empty, non-nil structure,
// so callers can tell "no data" from plaintext fallback.
func (c *StructuredCodec) Decode(text, key string) (map[string]any, error) {
	empty := map[string]any{}
	if text == "" {
		return empty, nil
	}

	raw, err := c.codec.Decode(text, key)
	if err != nil {
		return empty, err
	}

	var value map[string]any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return empty, apperrors.Wrap(apperrors.ErrInvalidInput, "not a structured envelope")
	}
	return value, nil
}
