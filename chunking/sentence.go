package chunking

import (
	"strings"

	"github.com/poiesic/vectorline/config"
)

// splitSentences splits on sentence-terminal punctuation (. ! ?) followed
// by whitespace or end of text, keeping the punctuation with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			// Absorb a run of terminal punctuation ("?!", "...").
			j := i
			for j+1 < len(text) && (text[j+1] == '.' || text[j+1] == '!' || text[j+1] == '?') {
				j++
			}
			if j+1 >= len(text) || text[j+1] == ' ' || text[j+1] == '\t' || text[j+1] == '\n' || text[j+1] == '\r' {
				sentence := strings.TrimSpace(text[start : j+1])
				if sentence != "" {
					sentences = append(sentences, sentence)
				}
				start = j + 1
			}
			i = j
		}
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// mergeSegments accumulates segments into chunks: a buffer flushes once
// its token count reaches ChunkSize (soft target), and never grows past
// the hard cap (EffectiveMaxChunkSize). A trailing buffer smaller than
// EffectiveMinChunkSize merges into the previous chunk instead of
// standing alone, unless it would be the very first chunk.
func mergeSegments(segments []string, sep string, cfg *config.ChunkingConfig) ([]string, error) {
	tok, err := forTokenizer(cfg.Tokenizer)
	if err != nil {
		return nil, err
	}

	minSize := cfg.EffectiveMinChunkSize()
	maxSize := cfg.EffectiveMaxChunkSize()
	target := cfg.ChunkSize

	var chunks []string
	var buf []string
	bufTokens := 0

	for _, segment := range segments {
		segTokens, err := tok.count(segment)
		if err != nil {
			return nil, err
		}
		if bufTokens+segTokens > maxSize && len(buf) > 0 {
			if bufTokens >= minSize {
				chunks = append(chunks, strings.Join(buf, sep))
			}
			buf = []string{segment}
			bufTokens = segTokens
			continue
		}
		buf = append(buf, segment)
		bufTokens += segTokens
		if bufTokens >= target || bufTokens >= maxSize {
			chunks = append(chunks, strings.Join(buf, sep))
			buf = nil
			bufTokens = 0
		}
	}

	if len(buf) > 0 {
		chunkText := strings.Join(buf, sep)
		switch {
		case bufTokens >= minSize:
			chunks = append(chunks, chunkText)
		case len(chunks) > 0:
			chunks[len(chunks)-1] = chunks[len(chunks)-1] + sep + chunkText
		default:
			chunks = append(chunks, chunkText)
		}
	}
	return chunks, nil
}

// sentenceChunks splits text on sentence boundaries and buffers sentences
// toward the target token size.
func sentenceChunks(text string, cfg *config.ChunkingConfig) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return []string{text}, nil
	}
	return mergeSegments(sentences, " ", cfg)
}
