package embedding

import (
	"regexp"
	"strings"

	"github.com/poiesic/vectorline/config"
)

var punctuation = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// preprocessText applies the configured preprocessing to one text:
// optional lowercasing, optional punctuation stripping, and a hard
// character truncation at MaxLength.
func preprocessText(text string, opts config.Preprocessing) string {
	if text == "" {
		return ""
	}
	if opts.Lowercase {
		text = strings.ToLower(text)
	}
	if opts.RemovePunctuation {
		text = punctuation.ReplaceAllString(text, "")
	}
	if opts.MaxLength > 0 {
		runes := []rune(text)
		if len(runes) > opts.MaxLength {
			text = string(runes[:opts.MaxLength])
		}
	}
	return text
}

// preprocessTexts applies preprocessing to each text, preserving order.
func preprocessTexts(texts []string, opts config.Preprocessing) []string {
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = preprocessText(text, opts)
	}
	return out
}
