// Package inputguard provides stateless validation and sanitization for
// untrusted strings: HTML/script stripping, format predicates, SQL/script
// injection heuristics, password strength scoring and filename cleaning.
//
// Threat detections are logged as structured security events carrying the
// matched pattern name and the input length, never the input content.
package inputguard

import (
	"context"
	"html"
	"log/slog"
	"regexp"
	"strings"

	"github.com/pathshala/dataguard/internal/metrics"
)

// threatPatterns are removed from input before HTML escaping.
var threatPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<\s*script[^>]*>.*?<\s*/\s*script\s*>`),
	regexp.MustCompile(`(?i)<\s*/?\s*script[^>]*>`),
	regexp.MustCompile(`(?is)<\s*iframe[^>]*>.*?<\s*/\s*iframe\s*>`),
	regexp.MustCompile(`(?i)<\s*/?\s*iframe[^>]*>`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)\bon\w+\s*=`),
}

// injectionPattern is a named SQL/script heuristic. The name is what gets
// logged; raw input never leaves the process.
type injectionPattern struct {
	name string
	re   *regexp.Regexp
}

var injectionPatterns = []injectionPattern{
	{"or_tautology", regexp.MustCompile(`(?i)\b(or|and)\b\s+'?\d+'?\s*=\s*'?\d+`)},
	{"sql_comment", regexp.MustCompile(`--|/\*`)},
	{"drop_table", regexp.MustCompile(`(?i)\bdrop\s+table\b`)},
	{"delete_from", regexp.MustCompile(`(?i)\bdelete\s+from\b`)},
	{"union_select", regexp.MustCompile(`(?i)\bunion\s+(all\s+)?select\b`)},
	{"script_tag", regexp.MustCompile(`(?i)<\s*script`)},
}

// Guard detects and neutralizes hostile input. Stateless aside from its
// logger and metrics sinks; safe for concurrent use.
type Guard struct {
	logger  *slog.Logger
	metrics metrics.BusinessMetrics
}

// NewGuard creates a Guard. Pass a no-op metrics implementation when metrics
// are disabled.
func NewGuard(logger *slog.Logger, businessMetrics metrics.BusinessMetrics) *Guard {
	return &Guard{logger: logger, metrics: businessMetrics}
}

// Sanitize neutralizes script/iframe tags, javascript: schemes and inline
// event handlers (case-insensitively), HTML-escapes the five reserved
// characters and trims surrounding whitespace.
//
// Idempotent: Sanitize(Sanitize(x)) == Sanitize(x). Existing entities are
// unescaped first so repeated passes cannot double-escape, and threat
// stripping runs to a fixpoint so fragments reassembled by one removal
// ("<scr<script>ipt>") cannot survive.
func (g *Guard) Sanitize(text string) string {
	s := html.UnescapeString(text)
	for {
		stripped := s
		for _, re := range threatPatterns {
			stripped = re.ReplaceAllString(stripped, "")
		}
		if stripped == s {
			break
		}
		s = stripped
	}
	return strings.TrimSpace(html.EscapeString(s))
}

// ContainsInjectionPattern reports whether text matches any of the fixed
// SQL/script heuristics. On match a security event is logged and counted.
func (g *Guard) ContainsInjectionPattern(ctx context.Context, text string) bool {
	for _, p := range injectionPatterns {
		if p.re.MatchString(text) {
			g.logger.Warn("security event: injection pattern detected",
				slog.String("pattern", p.name),
				slog.Int("input_length", len(text)))
			g.metrics.RecordSecurityEvent(ctx, "inputguard", p.name)
			return true
		}
	}
	return false
}
