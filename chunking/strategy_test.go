package chunking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/vectorline/config"
	"github.com/poiesic/vectorline/core"
)

func TestClean(t *testing.T) {
	assert.Equal(t, "a b c", Clean("  a \t b\n\nc ", true))
	assert.Equal(t, "a b c", Clean("  a \t b\n\nc ", false))
	assert.Equal(t, "", Clean("   \n ", true))
	assert.Equal(t, "", Clean("", false))
}

func TestResolveStrategyUnknown(t *testing.T) {
	_, err := resolveStrategy("zig_zag")
	require.ErrorIs(t, err, core.ErrUnknownStrategy)
}

func TestSentenceBasedAlias(t *testing.T) {
	a, err := resolveStrategy("sentence_boundary")
	require.NoError(t, err)
	b, err := resolveStrategy("sentence_based")
	require.NoError(t, err)
	cfg := config.ChunkingConfig{Strategy: "sentence_boundary", ChunkSize: 2}

	ca, err := a("One. Two. Three.", &cfg)
	require.NoError(t, err)
	cb, err := b("One. Two. Three.", &cfg)
	require.NoError(t, err)
	assert.Equal(t, ca, cb)
}

func TestWindowChunksBasic(t *testing.T) {
	cfg := config.ChunkingConfig{Strategy: "fixed_token", ChunkSize: 3, Overlap: 0}
	chunks, err := windowChunks("one two three four five", &cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"one two three", "four five"}, chunks)
}

func TestWindowChunksOverlap(t *testing.T) {
	cfg := config.ChunkingConfig{Strategy: "sliding_window", ChunkSize: 3, Overlap: 1}
	chunks, err := windowChunks("a b c d e", &cfg)
	require.NoError(t, err)
	// step = 3 - 1 = 2
	assert.Equal(t, []string{"a b c", "c d e", "e"}, chunks)
}

func TestWindowChunksOverlapSafety(t *testing.T) {
	// Overlap at and above chunk size must still make forward progress.
	for _, overlap := range []int{2, 3, 10, 100} {
		cfg := config.ChunkingConfig{Strategy: "sliding_window", ChunkSize: 2, Overlap: overlap}
		chunks, err := windowChunks("a b c d", &cfg)
		require.NoError(t, err)
		// Clamped overlap is 1, step 1: one window per start token.
		assert.Len(t, chunks, 4, "overlap=%d", overlap)
	}
}

func TestWindowChunksEmpty(t *testing.T) {
	cfg := config.ChunkingConfig{Strategy: "fixed_token", ChunkSize: 2}
	chunks, err := windowChunks("   ", &cfg)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitSentences(t *testing.T) {
	assert.Equal(t, []string{"A.", "B.", "C."}, splitSentences("A. B. C."))
	assert.Equal(t, []string{"Really?!", "Yes..."}, splitSentences("Really?! Yes..."))
	assert.Equal(t, []string{"No terminal punctuation"}, splitSentences("No terminal punctuation"))
	assert.Empty(t, splitSentences("   "))
}

func TestSentenceChunksScenario(t *testing.T) {
	// Three one-token sentences with a two-token target: the first two fill
	// a chunk, the third stands alone because the first chunk never merges
	// backward and min size is 1.
	cfg := config.ChunkingConfig{Strategy: "sentence_boundary", ChunkSize: 2, MinChunkSize: 1}
	chunks, err := sentenceChunks("A. B. C.", &cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"A. B.", "C."}, chunks)
}

func TestSentenceChunksMergesSmallTail(t *testing.T) {
	// The trailing sentence is below min size, so it merges into the
	// previous chunk.
	cfg := config.ChunkingConfig{Strategy: "sentence_boundary", ChunkSize: 4, MinChunkSize: 2}
	chunks, err := sentenceChunks("one two three four. tail.", &cfg)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "one two three four. tail.", chunks[0])
}

func TestSentenceChunksFirstChunkStandsAlone(t *testing.T) {
	// A lone short sentence is emitted as-is: there is nothing to merge into.
	cfg := config.ChunkingConfig{Strategy: "sentence_boundary", ChunkSize: 10, MinChunkSize: 5}
	chunks, err := sentenceChunks("Hi.", &cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hi."}, chunks)
}

func TestSentenceChunksHardCap(t *testing.T) {
	// Buffer may not grow past the hard cap (default 2x target).
	cfg := config.ChunkingConfig{Strategy: "sentence_boundary", ChunkSize: 3, MinChunkSize: 1}
	long := strings.Repeat("w ", 5) + "end."
	chunks, err := sentenceChunks(long+" Short.", &cfg)
	require.NoError(t, err)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(strings.Fields(chunk)), 6)
	}
}

func TestHTMLChunks(t *testing.T) {
	cfg := config.ChunkingConfig{Strategy: "html_structure", ChunkSize: 10}
	html := "<h1>Title</h1><p>First paragraph here.</p><div>Second block text.</div>"
	chunks, err := htmlChunks(html, &cfg)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Title\nFirst paragraph here.\nSecond block text.", chunks[0])
}

func TestHTMLChunksSplitsAtTarget(t *testing.T) {
	cfg := config.ChunkingConfig{Strategy: "html_structure", ChunkSize: 3}
	html := "<p>one two three</p><p>four five six</p>"
	chunks, err := htmlChunks(html, &cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"one two three", "four five six"}, chunks)
}

func TestHTMLChunksNoBlockTags(t *testing.T) {
	cfg := config.ChunkingConfig{Strategy: "html_structure", ChunkSize: 2}
	chunks, err := htmlChunks("plain text with <b>inline</b> markup only", &cfg)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
}

func TestTokenizerDefaultWhitespace(t *testing.T) {
	tok, err := forTokenizer("")
	require.NoError(t, err)
	count, err := tok.count("alpha beta  gamma")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	spans, err := tok.tokenize("alpha beta")
	require.NoError(t, err)
	require.Len(t, spans, 2)
	assert.Equal(t, "alpha", "alpha beta"[spans[0].start:spans[0].end])
	assert.Equal(t, "beta", "alpha beta"[spans[1].start:spans[1].end])
}

func TestTokenizerUnknown(t *testing.T) {
	_, err := forTokenizer("no-such-encoding")
	require.ErrorIs(t, err, core.ErrInvariantViolation)
}
