// Package cipher provides the at-rest codecs of the data-protection layer.
//
// Two codecs share one interface. ObfuscatingCodec is the legacy reversible
// stream obfuscator: it obscures data from casual inspection but provides no
// confidentiality against a motivated attacker with device access and no
// integrity check; decoding with the wrong key yields garbage, not an error.
// It stays the default because existing ciphertext on devices was written
// with it. AEADCodec is the authenticated replacement for deployments that
// accept a one-time re-encryption of stored data.
package cipher

// Codec is a reversible transform between plaintext and a printable
// (base64-safe) ciphertext envelope under a caller-supplied key.
//
// Encode and Decode degrade gracefully: on any failure the original input is
// returned unchanged together with a wrapped error, so data is never lost,
// just left in plaintext.
type Codec interface {
	Encode(plaintext, key string) (string, error)
	Decode(ciphertext, key string) (string, error)
}

// Algorithm names accepted by New.
const (
	AlgorithmXOR      = "xor"
	AlgorithmChaCha20 = "chacha20-poly1305"
)

// New returns the codec for the named algorithm, defaulting to the legacy
// obfuscator for unknown names so a bad config value never bricks stored
// data written under the default.
func New(algorithm string) Codec {
	switch algorithm {
	case AlgorithmChaCha20:
		return NewAEADCodec()
	default:
		return NewObfuscatingCodec()
	}
}
