package chunking

import (
	"strings"

	"github.com/poiesic/vectorline/config"
)

// windowChunks slides a window of ChunkSize tokens forward by
// ChunkSize - Overlap tokens. Overlap is clamped to ChunkSize - 1 so the
// step is always at least one token regardless of config. Chunk text
// spans from the first window token's start offset to the last one's end
// offset in the source text. Serves both fixed_token and sliding_window,
// which differ only in name.
func windowChunks(text string, cfg *config.ChunkingConfig) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	size := cfg.ChunkSize
	overlap := cfg.Overlap
	if overlap > size-1 {
		overlap = size - 1
	}
	step := size - overlap
	if step < 1 {
		step = 1
	}

	tok, err := forTokenizer(cfg.Tokenizer)
	if err != nil {
		return nil, err
	}
	spans, err := tok.tokenize(text)
	if err != nil {
		return nil, err
	}

	var chunks []string
	for i := 0; i < len(spans); i += step {
		end := i + size
		if end > len(spans) {
			end = len(spans)
		}
		chunkText := text[spans[i].start:spans[end-1].end]
		if strings.TrimSpace(chunkText) != "" {
			chunks = append(chunks, chunkText)
		}
	}
	return chunks, nil
}
