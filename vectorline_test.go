package vectorline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/vectorline/core"
)

func TestNewService(t *testing.T) {
	t.Run("create new service", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		svc, err := NewService(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, svc)
		defer svc.Close()

		assert.NotNil(t, svc.DocumentStore())
		assert.NotNil(t, svc.ChunkStore())
		assert.NotNil(t, svc.EmbeddingStore())
		assert.NotNil(t, svc.Resolver())
		assert.NotNil(t, svc.Registry())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// A file where the database directory should be
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		svc, err := NewService(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, svc)
	})

	t.Run("error with missing profiles file", func(t *testing.T) {
		svc, err := NewService("", WithInMemory(),
			WithProfiles(filepath.Join(t.TempDir(), "absent.yaml")))
		assert.Error(t, err)
		assert.Nil(t, svc)
	})
}

func TestService_Close(t *testing.T) {
	svc, err := NewService(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, svc)

	err = svc.Close()
	assert.NoError(t, err)
}

func TestService_FullPipeline(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService("", WithInMemory())
	require.NoError(t, err)
	defer svc.Close()

	const tenant = "tenant_1"
	const docID = "doc_1"

	require.NoError(t, svc.SeedDocument(ctx, tenant, docID,
		"alpha beta gamma delta epsilon zeta eta theta"))

	chunkRes, err := svc.ChunkDocument(ctx, tenant, docID, "sliding_default", nil)
	require.NoError(t, err)
	require.NotEmpty(t, chunkRes.ChunkIDs)
	assert.Equal(t, len(chunkRes.ChunkIDs), chunkRes.Inserted)

	embedRes, err := svc.EmbedChunks(ctx, tenant, chunkRes.ChunkIDs, "mock", nil)
	require.NoError(t, err)
	assert.Equal(t, len(chunkRes.ChunkIDs), embedRes.Created)
	assert.Zero(t, embedRes.Failed)

	pubRes, err := svc.PublishEmbeddings(ctx, tenant, embedRes.EmbeddingIDs, "docs-index", "cosine_default", nil)
	require.NoError(t, err)
	assert.Equal(t, len(embedRes.EmbeddingIDs), pubRes.Indexed)
	assert.Zero(t, pubRes.Failed)
	assert.Equal(t, "cosine", pubRes.Similarity)

	// Published entries are searchable with one of their own vectors.
	stored, err := svc.EmbeddingStore().GetEmbeddingsByIDs(ctx, tenant, embedRes.EmbeddingIDs, true)
	require.NoError(t, err)
	require.NotEmpty(t, stored)

	hits, err := svc.Search(ctx, "docs-index", stored[0].Vector, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, stored[0].EmbeddingID, hits[0].EmbeddingID)
}

func TestService_PipelineIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService("", WithInMemory())
	require.NoError(t, err)
	defer svc.Close()

	const tenant = "tenant_1"
	require.NoError(t, svc.SeedDocument(ctx, tenant, "doc_1", "one two three four"))

	first, err := svc.ChunkDocument(ctx, tenant, "doc_1", "fixed_default", nil)
	require.NoError(t, err)
	second, err := svc.ChunkDocument(ctx, tenant, "doc_1", "fixed_default", nil)
	require.NoError(t, err)

	assert.Equal(t, first.ChunkIDs, second.ChunkIDs)
	assert.Zero(t, second.Inserted)
	assert.Equal(t, first.Inserted, second.Updated)

	embFirst, err := svc.EmbedChunks(ctx, tenant, first.ChunkIDs, "mock", nil)
	require.NoError(t, err)
	embSecond, err := svc.EmbedChunks(ctx, tenant, first.ChunkIDs, "mock", nil)
	require.NoError(t, err)

	assert.Equal(t, embFirst.Created, embSecond.Skipped)
	assert.Zero(t, embSecond.Created)
	assert.ElementsMatch(t, embFirst.EmbeddingIDs, embSecond.EmbeddingIDs)
}

func TestService_UnknownProfile(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService("", WithInMemory())
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.ChunkDocument(ctx, "tenant_1", "doc_1", "no_such_profile", nil)
	assert.ErrorIs(t, err, core.ErrUnknownProfile)

	_, err = svc.EmbedChunks(ctx, "tenant_1", []string{"chunk_x"}, "no_such_profile", nil)
	assert.ErrorIs(t, err, core.ErrUnknownProfile)

	_, err = svc.PublishEmbeddings(ctx, "tenant_1", []string{"emb_x"}, "idx", "no_such_profile", nil)
	assert.ErrorIs(t, err, core.ErrUnknownProfile)
}
