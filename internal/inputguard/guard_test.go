package inputguard

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pathshala/dataguard/internal/metrics"
)

func newTestGuard() *Guard {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGuard(logger, metrics.NewNoOpBusinessMetrics())
}

func TestGuardSanitize(t *testing.T) {
	guard := newTestGuard()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text untouched",
			input: "hello world",
			want:  "hello world",
		},
		{
			name:  "script block removed",
			input: `before<script>alert("x")</script>after`,
			want:  "beforeafter",
		},
		{
			name:  "uppercase script removed",
			input: `<SCRIPT SRC="evil.js"></SCRIPT>text`,
			want:  "text",
		},
		{
			name:  "iframe removed",
			input: `<iframe src="https://evil.example"></iframe>note`,
			want:  "note",
		},
		{
			name:  "javascript scheme removed",
			input: "click javascript:alert(1) here",
			want:  "click alert(1) here",
		},
		{
			name:  "event handler removed",
			input: `<img onerror=alert(1) src=x>`,
			want:  "&lt;img alert(1) src=x&gt;",
		},
		{
			name:  "nested script does not reassemble",
			input: "<scr<script>ipt>alert(1)</scr</script>ipt>",
			want:  "",
		},
		{
			name:  "html chars escaped",
			input: `a < b & c > d "quoted"`,
			want:  "a &lt; b &amp; c &gt; d &#34;quoted&#34;",
		},
		{
			name:  "whitespace trimmed",
			input: "  padded  ",
			want:  "padded",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, guard.Sanitize(tt.input))
		})
	}
}

func TestGuardSanitizeIdempotent(t *testing.T) {
	guard := newTestGuard()

	inputs := []string{
		"hello world",
		`before<script>alert("x")</script>after`,
		`a < b & c > d "quoted"`,
		"<scr<script>ipt>alert(1)</script>",
		"&lt;already escaped&gt; &amp; more",
		"  padded javascript:void(0)  ",
	}
	for _, input := range inputs {
		once := guard.Sanitize(input)
		assert.Equal(t, once, guard.Sanitize(once), "input %q", input)
	}
}

func TestGuardContainsInjectionPattern(t *testing.T) {
	guard := newTestGuard()
	ctx := t.Context()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"classic drop table", `'; DROP TABLE users; --`, true},
		{"or tautology", `name' OR '1'='1`, true},
		{"union select", "x UNION SELECT password FROM users", true},
		{"delete from", "DELETE FROM sessions WHERE 1=1", true},
		{"sql block comment", "value /* hidden */", true},
		{"script tag", "<script>steal()</script>", true},
		{"plain text", "hello world", false},
		{"hyphenated word", "state-of-the-art", false},
		{"innocent select mention", "please select a course", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, guard.ContainsInjectionPattern(ctx, tt.input))
		})
	}
}

func TestValidators(t *testing.T) {
	t.Run("email", func(t *testing.T) {
		assert.True(t, IsValidEmail("student@school.edu"))
		assert.True(t, IsValidEmail("first.last+tag@sub.example.co"))
		assert.False(t, IsValidEmail(""))
		assert.False(t, IsValidEmail("not-an-email"))
		assert.False(t, IsValidEmail("missing@tld"))
		assert.False(t, IsValidEmail("@example.com"))
	})

	t.Run("url", func(t *testing.T) {
		assert.True(t, IsValidURL("https://openrouter.ai/api/v1"))
		assert.True(t, IsValidURL("http://example.com"))
		assert.False(t, IsValidURL(""))
		assert.False(t, IsValidURL("ftp://example.com"))
		assert.False(t, IsValidURL("javascript:alert(1)"))
		assert.False(t, IsValidURL("JavaScript:alert(1)"))
		assert.False(t, IsValidURL("data:text/html,<script>"))
		assert.False(t, IsValidURL("https://"))
	})

	t.Run("phone", func(t *testing.T) {
		assert.True(t, IsValidPhone("+91 98765 43210"))
		assert.True(t, IsValidPhone("(555) 123-4567"))
		assert.True(t, IsValidPhone("09876543210"))
		assert.False(t, IsValidPhone(""))
		assert.False(t, IsValidPhone("12345"))
		assert.False(t, IsValidPhone("call me maybe"))
	})
}

func TestPasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		want     Strength
	}{
		{"", StrengthWeak},
		{"abc", StrengthWeak},
		{"password", StrengthWeak},
		{"Password123", StrengthWeak},
		{"abcdefgh", StrengthWeak},
		{"Abcdefg1", StrengthMedium},
		{"abcdefgh1!", StrengthMedium},
		{"Abcdef1!", StrengthStrong},
		{"CorrectHorse7!", StrengthStrong},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.want, PasswordStrength(tt.password))
		})
	}
}

func TestIsKnownWeakPassword(t *testing.T) {
	assert.True(t, IsKnownWeakPassword("password"))
	assert.True(t, IsKnownWeakPassword("PASSWORD123"))
	assert.True(t, IsKnownWeakPassword("QwErTy"))
	assert.False(t, IsKnownWeakPassword("CorrectHorse7!"))
	assert.False(t, IsKnownWeakPassword(""))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain name", "report.pdf", "report.pdf"},
		{"traversal stripped", "../../etc/passwd", "etcpasswd"},
		{"reserved chars stripped", `no<te>s:fi"le|na?me*.txt`, "notesfilename.txt"},
		{"backslash traversal", `..\..\secret.doc`, "secret.doc"},
		{"trimmed dots and spaces", "  name.txt.  ", "name.txt"},
		{"only garbage", `..\..\`, "unnamed_file"},
		{"empty", "", "unnamed_file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.input))
		})
	}

	t.Run("long names capped", func(t *testing.T) {
		long := strings.Repeat("a", 300) + ".txt"
		got := SanitizeFilename(long)
		assert.Len(t, []rune(got), 255)
	})
}
