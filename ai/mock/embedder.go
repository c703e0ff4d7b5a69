package mock

import (
	"context"
	"hash/fnv"

	"github.com/poiesic/vectorline/config"
)

// DefaultDimension is the vector width of the built-in deterministic
// embedder.
const DefaultDimension = 384

// Strategy is a test double for ai.EmbeddingStrategy.
// It allows custom behavior injection via a function field.
type Strategy struct {
	// EmbedFunc is called by Embed if set.
	// If nil, uses default deterministic behavior.
	EmbedFunc func(ctx context.Context, texts []string, cfg *config.EmbeddingConfig) ([][]float32, error)

	// Dimension overrides the default vector width when set.
	Dimension int

	callCount int
}

// New creates a mock strategy with default deterministic behavior.
func New() *Strategy {
	return &Strategy{}
}

// Name returns the strategy identifier.
func (m *Strategy) Name() string {
	return "mock"
}

// Embed generates deterministic embeddings for the texts, so the same
// input always produces the same vector.
func (m *Strategy) Embed(ctx context.Context, texts []string, cfg *config.EmbeddingConfig) ([][]float32, error) {
	m.callCount++

	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, texts, cfg)
	}

	dim := m.Dimension
	if dim == 0 {
		dim = DefaultDimension
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = generateDeterministicVector(text, dim)
	}
	return vectors, nil
}

// CallCount returns the number of times Embed was called.
func (m *Strategy) CallCount() int {
	return m.callCount
}

// Reset clears the call count and any injected behavior.
func (m *Strategy) Reset() {
	m.callCount = 0
	m.EmbedFunc = nil
}

// generateDeterministicVector creates a deterministic embedding vector from
// text using an FNV hash seed.
func generateDeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}
	return vector
}
