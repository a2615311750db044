package errors

import (
	"errors"
	"testing"
)

type customError struct {
	Msg string
}

func (e customError) Error() string { return e.Msg }

func TestNew(t *testing.T) {
	err := New("test error")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Error() != "test error" {
		t.Errorf("expected 'test error', got '%s'", err.Error())
	}
}

func TestWrap(t *testing.T) {
	baseErr := errors.New("base error")

	t.Run("wrap non-nil error", func(t *testing.T) {
		wrapped := Wrap(baseErr, "wrapped")
		if wrapped == nil {
			t.Fatal("expected wrapped error, got nil")
		}
		expected := "wrapped: base error"
		if wrapped.Error() != expected {
			t.Errorf("expected '%s', got '%s'", expected, wrapped.Error())
		}
		if !errors.Is(wrapped, baseErr) {
			t.Error("expected wrapped error to wrap baseErr")
		}
	})

	t.Run("wrap nil error", func(t *testing.T) {
		wrapped := Wrap(nil, "wrapped")
		if wrapped != nil {
			t.Errorf("expected nil, got %v", wrapped)
		}
	})
}

func TestIs(t *testing.T) {
	if !Is(ErrNotFound, ErrNotFound) {
		t.Error("expected ErrNotFound to be ErrNotFound")
	}

	wrapped := Wrap(ErrStoreUnavailable, "context")
	if !Is(wrapped, ErrStoreUnavailable) {
		t.Error("expected wrapped ErrStoreUnavailable to be ErrStoreUnavailable")
	}

	if Is(ErrNotFound, ErrSecurityViolation) {
		t.Error("expected ErrNotFound NOT to be ErrSecurityViolation")
	}
}

func TestAs(t *testing.T) {
	custom := customError{Msg: "custom"}
	wrapped := Wrap(custom, "context")

	var target customError
	if !As(wrapped, &target) {
		t.Fatal("expected wrapped error to be able to extract target")
	}
	if target.Msg != "custom" {
		t.Errorf("expected 'custom', got '%s'", target.Msg)
	}
}

func TestJoin(t *testing.T) {
	t.Run("joins both errors", func(t *testing.T) {
		err := Join(ErrStoreUnavailable, ErrNotFound)
		if !Is(err, ErrStoreUnavailable) || !Is(err, ErrNotFound) {
			t.Error("expected joined error to match both sentinels")
		}
	})

	t.Run("all nil yields nil", func(t *testing.T) {
		if err := Join(nil, nil); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})
}

func TestStandardErrors(t *testing.T) {
	tests := []struct {
		err  error
		text string
	}{
		{ErrNotFound, "not found"},
		{ErrInvalidInput, "invalid input"},
		{ErrStoreUnavailable, "store unavailable"},
		{ErrSecurityViolation, "security violation"},
		{ErrConsentRequired, "consent required"},
		{ErrDomainNotAllowed, "domain not allowed"},
		{ErrTooManyRequests, "too many requests"},
	}

	for _, tt := range tests {
		if tt.err.Error() != tt.text {
			t.Errorf("expected text '%s' for error, got '%s'", tt.text, tt.err.Error())
		}
	}
}
