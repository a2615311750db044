package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"typical address", "student@school.edu", "st*****@school.edu"},
		{"long local part", "first.last@example.com", "fi********@example.com"},
		{"two char local part", "ab@example.com", "**@example.com"},
		{"one char local part", "a@example.com", "*@example.com"},
		{"no at sign", "not-an-email", "************"},
		{"trailing at sign", "user@", "*****"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskEmail(tt.input))
		})
	}
}

func TestMaskPhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain digits", "9876543210", "******3210"},
		{"formatted number", "+91 98765 43210", "********3210"},
		{"us format", "(555) 123-4567", "******4567"},
		{"too short", "1234", "****"},
		{"no digits", "call me", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskPhone(tt.input))
		})
	}
}

func TestMaskToken(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"long token", "sk-or-v1-0123456789abcdef", "sk-o*****************cdef"},
		{"exactly thirteen chars", "abcdefghijklm", "abcd*****jklm"},
		{"twelve chars fully starred", "abcdefghijkl", "************"},
		{"short token", "abc", "***"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskToken(tt.input))
		})
	}
}

func TestMaskURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"path and query dropped", "https://api.example.com/v1/users?token=abc", "https://api.example.com"},
		{"fragment dropped", "https://example.com/page#section", "https://example.com"},
		{"port preserved", "http://localhost:8080/debug", "http://localhost:8080"},
		{"no host", "not a url", "*********"},
		{"relative path", "/v1/users", "*********"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskURL(tt.input))
		})
	}
}
