package inputguard

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/jellydator/validation"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9 \-()]{6,18}[0-9]$`)
)

// Validation rules reusable in struct-level validation.
var (
	Email = validation.NewStringRuleWithError(isEmail,
		validation.NewError("validation_email_format", "must be a valid email address"))
	Phone = validation.NewStringRuleWithError(isPhone,
		validation.NewError("validation_phone_format", "must be a valid phone number"))
	HTTPURL = validation.NewStringRuleWithError(isHTTPURL,
		validation.NewError("validation_url_format", "must be a valid http or https URL"))
)

func isEmail(s string) bool {
	return emailRegex.MatchString(s)
}

func isPhone(s string) bool {
	return phoneRegex.MatchString(s)
}

// isHTTPURL accepts only http/https URLs with a non-empty host. Scheme
// comparison is case-insensitive so "JavaScript:" cannot slip through.
func isHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// IsValidEmail reports whether s is a well-formed email address.
func IsValidEmail(s string) bool {
	return validation.Validate(s, validation.Required, Email) == nil
}

// IsValidPhone reports whether s looks like a phone number (optional leading
// +, digits with common separators, 8 to 20 characters).
func IsValidPhone(s string) bool {
	return validation.Validate(s, validation.Required, Phone) == nil
}

// IsValidURL reports whether s is an http or https URL with a host.
// javascript: and data: URLs are rejected regardless of casing.
func IsValidURL(s string) bool {
	return validation.Validate(s, validation.Required, HTTPURL) == nil
}
