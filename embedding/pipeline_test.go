package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/vectorline/ai"
	"github.com/poiesic/vectorline/ai/mock"
	"github.com/poiesic/vectorline/config"
	"github.com/poiesic/vectorline/core"
	"github.com/poiesic/vectorline/storage"
)

// fakeChunkStore serves chunks from a map keyed by chunk id.
type fakeChunkStore struct {
	chunks map[string]*core.Chunk
}

func (f *fakeChunkStore) UpsertChunks(ctx context.Context, tenantID, documentID string, records []*core.Chunk) (int, int, error) {
	return 0, 0, nil
}

func (f *fakeChunkStore) GetChunksByIDs(ctx context.Context, tenantID string, ids []string) ([]*core.Chunk, error) {
	var out []*core.Chunk
	for _, id := range ids {
		if chunk, ok := f.chunks[id]; ok {
			out = append(out, chunk)
		}
	}
	return out, nil
}

func (f *fakeChunkStore) ListChunkIDs(ctx context.Context, tenantID string, limit int) ([]string, error) {
	return nil, nil
}

func (f *fakeChunkStore) Close() error { return nil }

// fakeEmbeddingStore keys records by (chunk id, config hash) and keeps the
// first-stored embedding id on replacement, like the real store.
type fakeEmbeddingStore struct {
	byIdentity map[string]*core.Embedding
	upsertErr  error
}

func newFakeEmbeddingStore() *fakeEmbeddingStore {
	return &fakeEmbeddingStore{byIdentity: make(map[string]*core.Embedding)}
}

func identityKey(chunkID, configHash string) string {
	return chunkID + "|" + configHash
}

func (f *fakeEmbeddingStore) FindByChunkAndConfigHash(ctx context.Context, tenantID, chunkID, configHash string) (*core.Embedding, error) {
	if emb, ok := f.byIdentity[identityKey(chunkID, configHash)]; ok {
		return emb, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeEmbeddingStore) UpsertEmbeddings(ctx context.Context, records []*core.Embedding) (int, int, error) {
	if f.upsertErr != nil {
		return 0, 0, f.upsertErr
	}
	inserted, updated := 0, 0
	for _, record := range records {
		key := identityKey(record.ChunkID, record.ConfigHash)
		if existing, ok := f.byIdentity[key]; ok {
			record.EmbeddingID = existing.EmbeddingID
			updated++
		} else {
			inserted++
		}
		f.byIdentity[key] = record
	}
	return inserted, updated, nil
}

func (f *fakeEmbeddingStore) GetEmbeddingsByIDs(ctx context.Context, tenantID string, ids []string, onlyProcessed bool) ([]*core.Embedding, error) {
	var out []*core.Embedding
	for _, emb := range f.byIdentity {
		for _, id := range ids {
			if emb.EmbeddingID != id {
				continue
			}
			if onlyProcessed && (emb.Status != core.StatusProcessed || len(emb.Vector) == 0) {
				continue
			}
			out = append(out, emb)
		}
	}
	return out, nil
}

func (f *fakeEmbeddingStore) ListEmbeddingIDs(ctx context.Context, tenantID string, limit int) ([]string, error) {
	return nil, nil
}

func (f *fakeEmbeddingStore) Close() error { return nil }

func seedChunks(texts map[string]string) *fakeChunkStore {
	store := &fakeChunkStore{chunks: make(map[string]*core.Chunk)}
	for id, text := range texts {
		store.chunks[id] = &core.Chunk{
			ChunkID:    id,
			TenantID:   "tenant_a",
			DocumentID: "doc_1",
			ChunkText:  text,
			ChunkHash:  core.ChunkHash(text, "fixed_token", "{}"),
			Status:     core.StatusPending,
		}
	}
	return store
}

func newTestPipeline(t *testing.T, chunks *fakeChunkStore, embeddings *fakeEmbeddingStore, strategy *mock.Strategy) *Pipeline {
	t.Helper()
	registry := ai.NewRegistry()
	registry.Register(strategy)
	pipeline, err := NewPipeline(chunks, embeddings, registry)
	require.NoError(t, err)
	return pipeline
}

func mockConfig() config.EmbeddingConfig {
	cfg := config.DefaultEmbeddingConfig()
	cfg.Strategy = "mock"
	return cfg
}

func TestEmbedChunksCreates(t *testing.T) {
	chunks := seedChunks(map[string]string{"chunk_1": "hello world", "chunk_2": "more text"})
	embeddings := newFakeEmbeddingStore()
	pipeline := newTestPipeline(t, chunks, embeddings, mock.New())

	cfg := mockConfig()
	result, err := pipeline.EmbedChunks(context.Background(), "tenant_a", []string{"chunk_1", "chunk_2"}, &cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Zero(t, result.Skipped)
	assert.Zero(t, result.Failed)
	require.Len(t, result.EmbeddingIDs, 2)
	for _, emb := range embeddings.byIdentity {
		assert.Equal(t, core.StatusProcessed, emb.Status)
		assert.Equal(t, mock.DefaultDimension, emb.Dimension)
		assert.True(t, emb.Norm.Applied)
		assert.Equal(t, "L2", emb.Norm.NormType)
		assert.Greater(t, emb.Norm.OriginalNorm, 0.0)
	}
}

func TestEmbedChunksIdempotent(t *testing.T) {
	chunks := seedChunks(map[string]string{"chunk_1": "hello", "chunk_2": "world"})
	embeddings := newFakeEmbeddingStore()
	strategy := mock.New()
	pipeline := newTestPipeline(t, chunks, embeddings, strategy)

	cfg := mockConfig()
	first, err := pipeline.EmbedChunks(context.Background(), "tenant_a", []string{"chunk_1", "chunk_2"}, &cfg)
	require.NoError(t, err)
	require.Equal(t, 2, first.Created)

	second, err := pipeline.EmbedChunks(context.Background(), "tenant_a", []string{"chunk_1", "chunk_2"}, &cfg)
	require.NoError(t, err)
	assert.Zero(t, second.Created)
	assert.Equal(t, 2, second.Skipped)
	assert.ElementsMatch(t, first.EmbeddingIDs, second.EmbeddingIDs)
	assert.Equal(t, 1, strategy.CallCount())
}

func TestEmbedChunksMissingChunk(t *testing.T) {
	chunks := seedChunks(map[string]string{"chunk_1": "hello"})
	embeddings := newFakeEmbeddingStore()
	pipeline := newTestPipeline(t, chunks, embeddings, mock.New())

	cfg := mockConfig()
	result, err := pipeline.EmbedChunks(context.Background(), "tenant_a", []string{"chunk_1", "chunk_ghost"}, &cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "chunk_ghost", result.Errors[0].ItemID)
	assert.Equal(t, core.CodeChunkNotFound, result.Errors[0].Code)
}

func TestEmbedChunksProviderFailureMarksAllFailed(t *testing.T) {
	texts := map[string]string{
		"chunk_1": "a", "chunk_2": "b", "chunk_3": "c", "chunk_4": "d", "chunk_5": "e",
	}
	chunks := seedChunks(texts)
	embeddings := newFakeEmbeddingStore()
	strategy := mock.New()
	strategy.EmbedFunc = func(ctx context.Context, texts []string, cfg *config.EmbeddingConfig) ([][]float32, error) {
		return nil, errors.New("provider exploded")
	}
	pipeline := newTestPipeline(t, chunks, embeddings, strategy)

	cfg := mockConfig()
	ids := []string{"chunk_1", "chunk_2", "chunk_3", "chunk_4", "chunk_5"}
	result, err := pipeline.EmbedChunks(context.Background(), "tenant_a", ids, &cfg)
	require.NoError(t, err)
	assert.Zero(t, result.Created)
	assert.Equal(t, 5, result.Failed)
	require.Len(t, result.Errors, 5)
	for _, itemErr := range result.Errors {
		assert.Equal(t, core.CodeEmbeddingFailed, itemErr.Code)
		assert.Equal(t, result.Errors[0].Message, itemErr.Message)
	}

	// All five failures are persisted for auditing.
	require.Len(t, embeddings.byIdentity, 5)
	for _, emb := range embeddings.byIdentity {
		assert.Equal(t, core.StatusFailed, emb.Status)
		assert.Equal(t, "provider exploded", emb.ErrorMessage)
		assert.Empty(t, emb.Vector)
	}
}

func TestEmbedChunksContractViolation(t *testing.T) {
	chunks := seedChunks(map[string]string{"chunk_1": "a", "chunk_2": "b"})
	embeddings := newFakeEmbeddingStore()
	strategy := mock.New()
	strategy.EmbedFunc = func(ctx context.Context, texts []string, cfg *config.EmbeddingConfig) ([][]float32, error) {
		return [][]float32{{1}}, nil // one vector for two texts
	}
	pipeline := newTestPipeline(t, chunks, embeddings, strategy)

	cfg := mockConfig()
	result, err := pipeline.EmbedChunks(context.Background(), "tenant_a", []string{"chunk_1", "chunk_2"}, &cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0].Message, "returned 1 vectors for 2 texts")
}

func TestEmbedChunksFailedRecordPersistBestEffort(t *testing.T) {
	chunks := seedChunks(map[string]string{"chunk_1": "a"})
	embeddings := newFakeEmbeddingStore()
	embeddings.upsertErr = core.ErrDependencyUnavailable
	strategy := mock.New()
	strategy.EmbedFunc = func(ctx context.Context, texts []string, cfg *config.EmbeddingConfig) ([][]float32, error) {
		return nil, errors.New("boom")
	}
	pipeline := newTestPipeline(t, chunks, embeddings, strategy)

	cfg := mockConfig()
	// The store error while recording failures is swallowed.
	result, err := pipeline.EmbedChunks(context.Background(), "tenant_a", []string{"chunk_1"}, &cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
}

func TestEmbedChunksUnknownStrategy(t *testing.T) {
	chunks := seedChunks(map[string]string{"chunk_1": "a"})
	pipeline := newTestPipeline(t, chunks, newFakeEmbeddingStore(), mock.New())

	cfg := mockConfig()
	cfg.Strategy = "quantum"
	_, err := pipeline.EmbedChunks(context.Background(), "tenant_a", []string{"chunk_1"}, &cfg)
	require.ErrorIs(t, err, core.ErrUnknownStrategy)
}

func TestEmbedChunksEmptyInput(t *testing.T) {
	pipeline := newTestPipeline(t, seedChunks(nil), newFakeEmbeddingStore(), mock.New())

	cfg := mockConfig()
	result, err := pipeline.EmbedChunks(context.Background(), "tenant_a", nil, &cfg)
	require.NoError(t, err)
	assert.Zero(t, result.Created+result.Skipped+result.Failed)
}

func TestPreprocessText(t *testing.T) {
	opts := config.Preprocessing{Lowercase: true, RemovePunctuation: true, MaxLength: 10}
	assert.Equal(t, "hello worl", preprocessText("Hello, World! Extra", opts))

	noOpts := config.Preprocessing{MaxLength: 100}
	assert.Equal(t, "Hello, World!", preprocessText("Hello, World!", noOpts))
}

func TestNormalizeVector(t *testing.T) {
	l2, norm := normalizeVector([]float32{3, 4}, "L2")
	assert.InDelta(t, 0.6, l2[0], 1e-6)
	assert.InDelta(t, 0.8, l2[1], 1e-6)
	assert.InDelta(t, 5.0, norm, 1e-6)

	l1, norm := normalizeVector([]float32{2, -2}, "L1")
	assert.InDelta(t, 0.5, l1[0], 1e-6)
	assert.InDelta(t, -0.5, l1[1], 1e-6)
	assert.InDelta(t, 4.0, norm, 1e-6)

	same, norm := normalizeVector([]float32{3, 4}, "none")
	assert.Equal(t, []float32{3, 4}, same)
	assert.Zero(t, norm)

	zero, norm := normalizeVector([]float32{0, 0}, "L2")
	assert.Equal(t, []float32{0, 0}, zero)
	assert.InDelta(t, 1.0, norm, 1e-6)
}
