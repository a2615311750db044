// Package service implements secret generation for the key vault.
package service

import (
	"crypto/rand"
	"math/big"

	apperrors "github.com/pathshala/dataguard/internal/errors"
	vaultDomain "github.com/pathshala/dataguard/internal/keyvault/domain"
)

// Generator produces cryptographically random secrets from the vault's fixed
// alphabet and nominal length.
type Generator struct{}

// NewGenerator creates a new Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate returns a new random secret of KeyLength characters drawn from
// KeyAlphabet. Each character is chosen with crypto/rand.Int, so the draw is
// uniform (no modulo bias).
func (g *Generator) Generate() (string, error) {
	alphabetSize := big.NewInt(int64(len(vaultDomain.KeyAlphabet)))
	secret := make([]byte, vaultDomain.KeyLength)

	for i := range secret {
		idx, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", apperrors.Wrap(err, "failed to generate secret")
		}
		secret[i] = vaultDomain.KeyAlphabet[idx.Int64()]
	}
	return string(secret), nil
}
