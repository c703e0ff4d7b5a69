package chunking

import (
	"regexp"
	"strings"
)

var whitespaceRuns = regexp.MustCompile(`[ \t\n\r]+`)

// Clean normalizes whitespace in raw content before chunking.
//
// Preserve mode collapses internal runs of whitespace to single spaces and
// trims the ends. Non-preserve mode re-tokenizes on any whitespace and
// rejoins with single spaces. The two agree on most inputs; they differ on
// exotic unicode whitespace, which Fields treats as a separator.
func Clean(text string, preserveWhitespace bool) string {
	if text == "" {
		return ""
	}
	if preserveWhitespace {
		return strings.TrimSpace(whitespaceRuns.ReplaceAllString(text, " "))
	}
	return strings.Join(strings.Fields(text), " ")
}
