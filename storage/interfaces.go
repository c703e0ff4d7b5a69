package storage

import (
	"context"

	"github.com/poiesic/vectorline/core"
)

// DocumentStore provides access to tenant raw documents.
type DocumentStore interface {
	// GetDocument retrieves a raw document by id under the tenant.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, tenantID, documentID string) (*core.RawDocument, error)

	// PutDocument stores a raw document, replacing any previous version.
	// Sets InsertedAt on first write and UpdatedAt on every write.
	PutDocument(ctx context.Context, doc *core.RawDocument) error

	// Close closes the store and releases resources.
	Close() error
}

// ChunkStore provides operations for managing chunk records.
type ChunkStore interface {
	// UpsertChunks inserts or replaces chunk records in one batch, matched by
	// (tenant, document, chunk hash). Writes are independent: one failing
	// record does not block the others. Returns (inserted, updated) counts.
	UpsertChunks(ctx context.Context, tenantID, documentID string, records []*core.Chunk) (int, int, error)

	// GetChunksByIDs retrieves chunks by their ids under the tenant.
	// Returns only the chunks that exist (no error for missing ids).
	GetChunksByIDs(ctx context.Context, tenantID string, ids []string) ([]*core.Chunk, error)

	// ListChunkIDs returns up to limit chunk ids for the tenant, so callers
	// can drive the embedding stage by count instead of explicit ids.
	ListChunkIDs(ctx context.Context, tenantID string, limit int) ([]string, error)

	// Close closes the store and releases resources.
	Close() error
}

// EmbeddingStore provides operations for managing embedding records.
type EmbeddingStore interface {
	// FindByChunkAndConfigHash looks up an embedding by its identity triple.
	// Returns ErrNotFound when no embedding exists for that identity.
	FindByChunkAndConfigHash(ctx context.Context, tenantID, chunkID, configHash string) (*core.Embedding, error)

	// UpsertEmbeddings inserts or replaces embedding records in one batch,
	// matched by (tenant, chunk id, config hash). A replaced record keeps the
	// embedding id it was first stored under. Writes are independent: one
	// failing record does not block the others. Returns (inserted, updated).
	UpsertEmbeddings(ctx context.Context, records []*core.Embedding) (int, int, error)

	// GetEmbeddingsByIDs retrieves embeddings by their ids under the tenant.
	// When onlyProcessed is true, records that are not status processed or
	// carry an empty vector are omitted. Missing ids are not an error.
	GetEmbeddingsByIDs(ctx context.Context, tenantID string, ids []string, onlyProcessed bool) ([]*core.Embedding, error)

	// ListEmbeddingIDs returns up to limit ids of processed embeddings with
	// non-empty vectors for the tenant.
	ListEmbeddingIDs(ctx context.Context, tenantID string, limit int) ([]string, error)

	// Close closes the store and releases resources.
	Close() error
}
