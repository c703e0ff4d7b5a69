// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/vectorline/config"
	"github.com/poiesic/vectorline/core"
	"github.com/poiesic/vectorline/storage"
)

// Configuration errors returned by NewPublisher.
var (
	ErrEmbeddingStoreRequired = errors.New("embedding store is required")
	ErrChunkStoreRequired     = errors.New("chunk store is required")
	ErrVectorIndexRequired    = errors.New("vector index is required")
)

// Publisher runs the publish stage: load processed embeddings, reconcile
// the named index's geometry, and bulk-write vector entries.
type Publisher struct {
	embeddings storage.EmbeddingStore
	chunks     storage.ChunkStore
	index      VectorIndex
	logger     *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher over the given stores and index.
func NewPublisher(embeddings storage.EmbeddingStore, chunks storage.ChunkStore, index VectorIndex, opts ...Option) (*Publisher, error) {
	if embeddings == nil {
		return nil, ErrEmbeddingStoreRequired
	}
	if chunks == nil {
		return nil, ErrChunkStoreRequired
	}
	if index == nil {
		return nil, ErrVectorIndexRequired
	}

	p := &Publisher{
		embeddings: embeddings,
		chunks:     chunks,
		index:      index,
		logger:     slog.Default().With("component", "index-publisher"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Result is the outcome of one publish run.
type Result struct {
	Indexed        int
	Failed         int
	Errors         []core.ItemError
	Dimension      int
	Similarity     string
	TotalPublished int
}

// Publish loads the requested embeddings and writes them into the named
// index. Ids that are absent, not processed, or missing a vector become
// per-item errors; an index-level write failure fails every item rather
// than raising. The index is recreated when its stored dimension differs
// from the batch's.
func (p *Publisher) Publish(ctx context.Context, tenantID string, embeddingIDs []string, indexName string, cfg *config.IndexingConfig) (*Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: indexing config is required", core.ErrInvariantViolation)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	result := &Result{Similarity: cfg.Similarity}
	if len(embeddingIDs) == 0 {
		return result, nil
	}

	embeddings, err := p.embeddings.GetEmbeddingsByIDs(ctx, tenantID, embeddingIDs, true)
	if err != nil {
		return nil, err
	}

	found := make(map[string]bool, len(embeddings))
	var valid []*core.Embedding
	for _, emb := range embeddings {
		if emb.EmbeddingID == "" {
			result.Errors = append(result.Errors, core.ItemError{
				ItemID:  emb.ChunkID,
				Message: "embedding record missing embedding id",
				Code:    core.CodeMissingIdentity,
			})
			continue
		}
		found[emb.EmbeddingID] = true
		valid = append(valid, emb)
	}
	for _, id := range embeddingIDs {
		if !found[id] {
			result.Errors = append(result.Errors, core.ItemError{
				ItemID:  id,
				Message: "embedding not found or not processed",
				Code:    core.CodeEmbeddingNotFound,
			})
		}
	}

	if len(valid) == 0 {
		result.Failed = len(embeddingIDs)
		return result, nil
	}

	dimension := 0
	for _, emb := range valid {
		if len(emb.Vector) > 0 {
			dimension = len(emb.Vector)
			break
		}
	}
	if dimension == 0 {
		for _, emb := range valid {
			result.Errors = append(result.Errors, core.ItemError{
				ItemID:  emb.EmbeddingID,
				Message: "no vector",
				Code:    core.CodeNoVector,
			})
		}
		result.Failed = len(embeddingIDs)
		return result, nil
	}
	result.Dimension = dimension

	if err := p.ensureIndex(ctx, indexName, dimension, cfg); err != nil {
		return nil, err
	}

	chunkText := p.lookupChunkTexts(ctx, tenantID, valid)

	entries := make([]*core.VectorEntry, len(valid))
	for i, emb := range valid {
		entries[i] = &core.VectorEntry{
			EmbeddingID: emb.EmbeddingID,
			TenantID:    emb.TenantID,
			DocumentID:  emb.DocumentID,
			ChunkID:     emb.ChunkID,
			ChunkText:   chunkText[emb.ChunkID],
			Vector:      emb.Vector,
		}
	}

	successIDs, failedItems, err := p.index.BulkUpsert(ctx, indexName, entries)
	if err != nil {
		// Total index failure: every valid item fails, nothing raised.
		p.logger.Error("bulk publish failed", "index", indexName, "err", err)
		for _, emb := range valid {
			result.Errors = append(result.Errors, core.ItemError{
				ItemID:  emb.EmbeddingID,
				Message: err.Error(),
				Code:    core.CodeIndexFailed,
			})
		}
		result.Failed = len(result.Errors)
		return result, nil
	}
	result.Errors = append(result.Errors, failedItems...)

	result.Indexed = len(successIDs)
	result.Failed = len(result.Errors)
	result.TotalPublished = result.Indexed

	p.logger.Info("published embeddings",
		"tenant_id", tenantID,
		"index", indexName,
		"indexed", result.Indexed,
		"failed", result.Failed,
		"dimension", dimension,
		"similarity", cfg.Similarity)

	return result, nil
}

// ensureIndex reconciles the named index with the batch dimension:
// absent indexes are created; an existing index with a different or
// undeterminable dimension is destructively recreated.
func (p *Publisher) ensureIndex(ctx context.Context, name string, dimension int, cfg *config.IndexingConfig) error {
	exists, err := p.index.Exists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		existing, ok, err := p.index.Dimension(ctx, name)
		if err != nil {
			return err
		}
		if ok && existing == dimension {
			return nil
		}
		p.logger.Warn("index dimension mismatch, recreating",
			"index", name, "existing", existing, "new", dimension)
		if err := p.index.Delete(ctx, name); err != nil {
			return err
		}
	}
	return p.index.Create(ctx, name, dimension, cfg.Similarity, cfg.HNSW)
}

// lookupChunkTexts fetches chunk texts for the batch. The text is
// presentation payload, so a failed lookup degrades to empty strings
// instead of failing the publish.
func (p *Publisher) lookupChunkTexts(ctx context.Context, tenantID string, embeddings []*core.Embedding) map[string]string {
	seen := make(map[string]bool, len(embeddings))
	var ids []string
	for _, emb := range embeddings {
		if emb.ChunkID != "" && !seen[emb.ChunkID] {
			seen[emb.ChunkID] = true
			ids = append(ids, emb.ChunkID)
		}
	}

	texts := make(map[string]string, len(ids))
	chunks, err := p.chunks.GetChunksByIDs(ctx, tenantID, ids)
	if err != nil {
		p.logger.Warn("chunk text lookup failed, publishing without text", "err", err)
		return texts
	}
	for _, chunk := range chunks {
		texts[chunk.ChunkID] = chunk.ChunkText
	}
	return texts
}
