// Package masking redacts personally identifiable values for log output and
// diagnostics. All functions are pure and never return the full original
// value for well-formed input.
package masking

import (
	"net/url"
	"strings"
)

// MaskEmail keeps the first two characters of the local part and the full
// domain. Local parts of two characters or fewer are fully starred. Values
// without an @ are returned fully starred.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return strings.Repeat("*", len(email))
	}

	local, domain := email[:at], email[at+1:]
	if len(local) <= 2 {
		return strings.Repeat("*", len(local)) + "@" + domain
	}
	return local[:2] + strings.Repeat("*", len(local)-2) + "@" + domain
}

// MaskPhone keeps the last four digits and stars the rest, preserving
// nothing of the original formatting. Values with four digits or fewer are
// fully starred.
func MaskPhone(phone string) string {
	digits := make([]rune, 0, len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) <= 4 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-4) + string(digits[len(digits)-4:])
}

// MaskToken keeps the first and last four characters of tokens longer than
// twelve characters; shorter tokens are fully starred so that most of the
// secret never appears.
func MaskToken(token string) string {
	if len(token) <= 12 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

// MaskURL reduces a URL to scheme and host, dropping path, query and
// fragment where credentials and identifiers tend to live. Unparseable
// values and values without a host are fully starred.
func MaskURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.Repeat("*", len(rawURL))
	}
	return u.Scheme + "://" + u.Host
}
