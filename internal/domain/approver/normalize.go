// Package approver turns free-text manager references from employee profiles
// into concrete directory entries.
package approver

import (
	"regexp"
	"strings"
)

var parenthesized = regexp.MustCompile(`\([^()]*\)`)

// clauseSeparators are applied in this order, each cutting the working string
// at its first occurrence.
var clauseSeparators = []string{" - ", "|", "/", ","}

// Normalize strips titles and annotations from a raw manager reference,
// e.g. "Nguyễn Văn A (Trưởng phòng IT)" becomes "Nguyễn Văn A".
// The second result is false when nothing comparable remains.
func Normalize(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}
	s := raw

	// innermost groups first so nested annotations disappear entirely
	for {
		stripped := parenthesized.ReplaceAllString(s, " ")
		if stripped == s {
			break
		}
		s = stripped
	}

	for _, sep := range clauseSeparators {
		if idx := strings.Index(s, sep); idx >= 0 {
			s = s[:idx]
		}
	}

	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "", false
	}
	return s, true
}
