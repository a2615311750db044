package inputguard

import (
	"strings"
	"unicode"
)

// Strength classifies a password.
type Strength string

const (
	StrengthWeak   Strength = "weak"
	StrengthMedium Strength = "medium"
	StrengthStrong Strength = "strong"
)

// knownWeakPasswords are rejected outright regardless of score.
var knownWeakPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"123456":      {},
	"12345678":    {},
	"123456789":   {},
	"qwerty":      {},
	"qwerty123":   {},
	"abc123":      {},
	"letmein":     {},
	"welcome":     {},
	"admin":       {},
	"iloveyou":    {},
	"monkey":      {},
	"dragon":      {},
}

// IsKnownWeakPassword reports whether the password (case-insensitively)
// appears on the builtin denylist of common passwords.
func IsKnownWeakPassword(password string) bool {
	_, ok := knownWeakPasswords[strings.ToLower(password)]
	return ok
}

// PasswordStrength scores a password on length and character-class variety.
// Denylisted passwords are always weak.
func PasswordStrength(password string) Strength {
	if IsKnownWeakPassword(password) {
		return StrengthWeak
	}

	score := 0
	if len(password) >= 8 {
		score++
	}
	if len(password) >= 12 {
		score++
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	for _, ok := range []bool{hasUpper, hasLower, hasDigit, hasSpecial} {
		if ok {
			score++
		}
	}

	switch {
	case score >= 5:
		return StrengthStrong
	case score >= 3:
		return StrengthMedium
	default:
		return StrengthWeak
	}
}
