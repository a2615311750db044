package inputguard

import (
	"regexp"
	"strings"
)

const maxFilenameRunes = 255

var (
	filenameReserved  = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	filenameTraversal = regexp.MustCompile(`\.\.+[/\\]?`)
)

// SanitizeFilename strips path traversal sequences and characters that are
// reserved on common filesystems, trims surrounding whitespace and dots, and
// caps the result at 255 runes. An input that sanitizes to nothing becomes
// "unnamed_file".
func SanitizeFilename(name string) string {
	s := filenameTraversal.ReplaceAllString(name, "")
	s = filenameReserved.ReplaceAllString(s, "")
	s = strings.Trim(s, " .")

	if runes := []rune(s); len(runes) > maxFilenameRunes {
		s = string(runes[:maxFilenameRunes])
		s = strings.Trim(s, " .")
	}
	if s == "" {
		return "unnamed_file"
	}
	return s
}
