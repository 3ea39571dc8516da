package textutil

import (
	"strings"
	"unicode"
)

// SanitizeFileName makes a name safe to use as a single path element.
// Separators and wildcard characters become dashes; quoting, redirection and
// control characters are dropped.
func SanitizeFileName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*':
			return '-'
		case '?', '"', '<', '>', '|':
			return -1
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(cleaned)
}
