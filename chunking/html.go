package chunking

import (
	"regexp"
	"strings"

	"github.com/poiesic/vectorline/config"
)

var blockTags = regexp.MustCompile(`(?i)</?(?:p|div|h[1-6]|li|section|article|blockquote)[^>]*>`)

// htmlChunks splits text on block-level tag boundaries and buffers the
// resulting segments under the same policy as sentence chunking, joined
// with newlines instead of spaces. Text without block structure becomes a
// single chunk.
func htmlChunks(text string, cfg *config.ChunkingConfig) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	parts := blockTags.Split(text, -1)
	var segments []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || strings.HasPrefix(part, "<") {
			continue
		}
		segments = append(segments, part)
	}
	if len(segments) == 0 {
		return []string{strings.TrimSpace(text)}, nil
	}
	return mergeSegments(segments, "\n", cfg)
}
