package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/vectorline/config"
	"github.com/poiesic/vectorline/core"
)

// fakeEmbeddingStore serves embeddings by id, honoring onlyProcessed.
type fakeEmbeddingStore struct {
	embeddings map[string]*core.Embedding
}

func (f *fakeEmbeddingStore) FindByChunkAndConfigHash(ctx context.Context, tenantID, chunkID, configHash string) (*core.Embedding, error) {
	return nil, nil
}

func (f *fakeEmbeddingStore) UpsertEmbeddings(ctx context.Context, records []*core.Embedding) (int, int, error) {
	return 0, 0, nil
}

func (f *fakeEmbeddingStore) GetEmbeddingsByIDs(ctx context.Context, tenantID string, ids []string, onlyProcessed bool) ([]*core.Embedding, error) {
	var out []*core.Embedding
	for _, id := range ids {
		emb, ok := f.embeddings[id]
		if !ok {
			continue
		}
		if onlyProcessed && (emb.Status != core.StatusProcessed || len(emb.Vector) == 0) {
			continue
		}
		out = append(out, emb)
	}
	return out, nil
}

func (f *fakeEmbeddingStore) ListEmbeddingIDs(ctx context.Context, tenantID string, limit int) ([]string, error) {
	return nil, nil
}

func (f *fakeEmbeddingStore) Close() error { return nil }

// fakeChunkStore serves chunk texts.
type fakeChunkStore struct {
	texts map[string]string
}

func (f *fakeChunkStore) UpsertChunks(ctx context.Context, tenantID, documentID string, records []*core.Chunk) (int, int, error) {
	return 0, 0, nil
}

func (f *fakeChunkStore) GetChunksByIDs(ctx context.Context, tenantID string, ids []string) ([]*core.Chunk, error) {
	var out []*core.Chunk
	for _, id := range ids {
		if text, ok := f.texts[id]; ok {
			out = append(out, &core.Chunk{ChunkID: id, ChunkText: text})
		}
	}
	return out, nil
}

func (f *fakeChunkStore) ListChunkIDs(ctx context.Context, tenantID string, limit int) ([]string, error) {
	return nil, nil
}

func (f *fakeChunkStore) Close() error { return nil }

func processedEmbedding(id, chunkID string, vector []float32) *core.Embedding {
	return &core.Embedding{
		EmbeddingID: id,
		TenantID:    "tenant_a",
		DocumentID:  "doc_1",
		ChunkID:     chunkID,
		Vector:      vector,
		Dimension:   len(vector),
		Status:      core.StatusProcessed,
	}
}

func newTestPublisher(t *testing.T, embeddings map[string]*core.Embedding, texts map[string]string) (*Publisher, *HNSWIndex) {
	t.Helper()
	idx := NewHNSWIndex()
	t.Cleanup(func() { idx.Close() })
	publisher, err := NewPublisher(&fakeEmbeddingStore{embeddings: embeddings}, &fakeChunkStore{texts: texts}, idx)
	require.NoError(t, err)
	return publisher, idx
}

func indexingConfig() config.IndexingConfig {
	return config.DefaultIndexingConfig()
}

func TestPublishCreatesIndexAndWrites(t *testing.T) {
	embeddings := map[string]*core.Embedding{
		"emb_1": processedEmbedding("emb_1", "chunk_1", []float32{1, 0}),
		"emb_2": processedEmbedding("emb_2", "chunk_2", []float32{0, 1}),
	}
	publisher, idx := newTestPublisher(t, embeddings, map[string]string{
		"chunk_1": "first text",
		"chunk_2": "second text",
	})

	cfg := indexingConfig()
	result, err := publisher.Publish(context.Background(), "tenant_a", []string{"emb_1", "emb_2"}, "docs", &cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Indexed)
	assert.Zero(t, result.Failed)
	assert.Equal(t, 2, result.Dimension)
	assert.Equal(t, "cosine", result.Similarity)
	assert.Equal(t, 2, result.TotalPublished)

	// Chunk text travels with the entry.
	results, err := idx.Search(context.Background(), "docs", []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "first text", results[0].ChunkText)
}

func TestPublishIdempotent(t *testing.T) {
	embeddings := map[string]*core.Embedding{
		"emb_1": processedEmbedding("emb_1", "chunk_1", []float32{1, 0}),
	}
	publisher, idx := newTestPublisher(t, embeddings, nil)

	cfg := indexingConfig()
	for i := 0; i < 2; i++ {
		result, err := publisher.Publish(context.Background(), "tenant_a", []string{"emb_1"}, "docs", &cfg)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Indexed)
	}

	// Same embedding id twice: one entry, not two.
	results, err := idx.Search(context.Background(), "docs", []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestPublishDimensionReconciliation(t *testing.T) {
	embeddings := map[string]*core.Embedding{
		"emb_2d": processedEmbedding("emb_2d", "chunk_1", []float32{1, 0}),
		"emb_3d": processedEmbedding("emb_3d", "chunk_2", []float32{1, 0, 0}),
	}
	publisher, idx := newTestPublisher(t, embeddings, nil)
	ctx := context.Background()

	cfg := indexingConfig()
	result, err := publisher.Publish(ctx, "tenant_a", []string{"emb_2d"}, "docs", &cfg)
	require.NoError(t, err)
	require.Equal(t, 1, result.Indexed)

	// Different dimension: the index is destroyed and recreated.
	result, err = publisher.Publish(ctx, "tenant_a", []string{"emb_3d"}, "docs", &cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Indexed)
	assert.Equal(t, 3, result.Dimension)

	dim, ok, err := idx.Dimension(ctx, "docs")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, dim)

	// The old 2d entry is gone with the recreated index.
	results, err := idx.Search(ctx, "docs", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestPublishMissingEmbeddings(t *testing.T) {
	embeddings := map[string]*core.Embedding{
		"emb_1": processedEmbedding("emb_1", "chunk_1", []float32{1, 0}),
	}
	failedEmb := processedEmbedding("emb_failed", "chunk_2", nil)
	failedEmb.Status = core.StatusFailed
	embeddings["emb_failed"] = failedEmb

	publisher, _ := newTestPublisher(t, embeddings, nil)

	cfg := indexingConfig()
	result, err := publisher.Publish(context.Background(), "tenant_a",
		[]string{"emb_1", "emb_failed", "emb_ghost"}, "docs", &cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Indexed)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	for _, itemErr := range result.Errors {
		assert.Equal(t, core.CodeEmbeddingNotFound, itemErr.Code)
	}
}

func TestPublishNothingProcessed(t *testing.T) {
	publisher, idx := newTestPublisher(t, map[string]*core.Embedding{}, nil)

	cfg := indexingConfig()
	result, err := publisher.Publish(context.Background(), "tenant_a", []string{"emb_1", "emb_2"}, "docs", &cfg)
	require.NoError(t, err)
	assert.Zero(t, result.Indexed)
	assert.Equal(t, 2, result.Failed)
	assert.Len(t, result.Errors, 2)

	// No index is created when nothing can be published.
	exists, err := idx.Exists(context.Background(), "docs")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPublishEmptyInput(t *testing.T) {
	publisher, _ := newTestPublisher(t, nil, nil)

	cfg := indexingConfig()
	result, err := publisher.Publish(context.Background(), "tenant_a", nil, "docs", &cfg)
	require.NoError(t, err)
	assert.Zero(t, result.Indexed+result.Failed)
	assert.Equal(t, "cosine", result.Similarity)
}

func TestPublishPartialAccounting(t *testing.T) {
	// 3 requested, 1 missing: failed == 1, indexed == 2.
	embeddings := map[string]*core.Embedding{
		"emb_1": processedEmbedding("emb_1", "chunk_1", []float32{1, 0}),
		"emb_2": processedEmbedding("emb_2", "chunk_2", []float32{0, 1}),
	}
	publisher, _ := newTestPublisher(t, embeddings, nil)

	cfg := indexingConfig()
	result, err := publisher.Publish(context.Background(), "tenant_a",
		[]string{"emb_1", "emb_2", "emb_missing"}, "docs", &cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Indexed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, result.Indexed+result.Failed, 3)
}
