// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. The data-protection layer never panics into
// UI code; operations surface one of these sentinels instead, usually wrapped with
// context from the failing layer.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors shared by all packages of the data-protection layer.
var (
	// ErrNotFound indicates the requested store key or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input data is malformed or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStoreUnavailable indicates the persistent key-value store could not be
	// read or written. Callers receive a safe fallback value alongside this error
	// and may continue in degraded mode.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrSecurityViolation indicates untrusted input matched a threat pattern or
	// a call targeted a disallowed destination. The offending data is dropped or
	// the call refused; a structured security event is logged without the payload.
	ErrSecurityViolation = errors.New("security violation")

	// ErrConsentRequired indicates processing was attempted without a valid,
	// current consent record.
	ErrConsentRequired = errors.New("consent required")

	// ErrDomainNotAllowed indicates an outbound URL failed the allowlist check.
	ErrDomainNotAllowed = errors.New("domain not allowed")

	// ErrTooManyRequests indicates a rate-limited operation was attempted inside
	// its cooldown window.
	ErrTooManyRequests = errors.New("too many requests")
)

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New for consistency.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join returns an error wrapping the given errors, discarding nils.
// Used where two cleanup steps must both run and both outcomes matter,
// such as erasing the store and wiping the encryption key.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
