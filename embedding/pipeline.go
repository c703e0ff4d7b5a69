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


package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/vectorline/ai"
	"github.com/poiesic/vectorline/config"
	"github.com/poiesic/vectorline/core"
	"github.com/poiesic/vectorline/storage"
)

// Configuration errors returned by NewPipeline.
var (
	ErrChunkStoreRequired     = errors.New("chunk store is required")
	ErrEmbeddingStoreRequired = errors.New("embedding store is required")
	ErrRegistryRequired       = errors.New("strategy registry is required")
)

// Pipeline runs the embedding stage: load chunks, skip identities that
// already have embeddings, batch the rest through a provider strategy,
// and persist the outcome.
type Pipeline struct {
	chunks     storage.ChunkStore
	embeddings storage.EmbeddingStore
	registry   *ai.Registry
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline creates an embedding pipeline over the given stores and
// strategy registry.
func NewPipeline(chunks storage.ChunkStore, embeddings storage.EmbeddingStore, registry *ai.Registry, opts ...Option) (*Pipeline, error) {
	if chunks == nil {
		return nil, ErrChunkStoreRequired
	}
	if embeddings == nil {
		return nil, ErrEmbeddingStoreRequired
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}

	p := &Pipeline{
		chunks:     chunks,
		embeddings: embeddings,
		registry:   registry,
		logger:     slog.Default().With("component", "embedding-pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Result is the outcome of one embedding run. EmbeddingIDs covers both
// created and skipped records so callers always hold the full id set for
// the requested chunks.
type Result struct {
	Created      int
	Updated      int
	Skipped      int
	Failed       int
	EmbeddingIDs []string
	Errors       []core.ItemError
}

// pending is a chunk awaiting a provider call.
type pending struct {
	chunkID    string
	documentID string
	text       string
	configHash string
}

// EmbedChunks embeds the given chunks under the config. Per-item problems
// (missing chunk, failed provider batch) are captured in the result, never
// raised. Structural problems — unknown strategy, unreachable store —
// are raised.
func (p *Pipeline) EmbedChunks(ctx context.Context, tenantID string, chunkIDs []string, cfg *config.EmbeddingConfig) (*Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: embedding config is required", core.ErrInvariantViolation)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	strategy, err := p.registry.Resolve(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	if len(chunkIDs) == 0 {
		return result, nil
	}

	canonical, err := cfg.CanonicalJSON()
	if err != nil {
		return nil, err
	}

	chunks, err := p.chunks.GetChunksByIDs(ctx, tenantID, chunkIDs)
	if err != nil {
		return nil, err
	}
	chunkByID := make(map[string]*core.Chunk, len(chunks))
	for _, chunk := range chunks {
		chunkByID[chunk.ChunkID] = chunk
	}

	// Dedupe pass: identity hits are skips, misses go to the provider.
	var toEmbed []pending
	for _, chunkID := range chunkIDs {
		chunk, ok := chunkByID[chunkID]
		if !ok {
			result.Failed++
			result.Errors = append(result.Errors, core.ItemError{
				ItemID:  chunkID,
				Message: "chunk not found",
				Code:    core.CodeChunkNotFound,
			})
			continue
		}

		configHash := core.EmbeddingConfigHash(chunk.ChunkHash, cfg.Model, cfg.Strategy, canonical)
		existing, err := p.embeddings.FindByChunkAndConfigHash(ctx, tenantID, chunkID, configHash)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				toEmbed = append(toEmbed, pending{
					chunkID:    chunkID,
					documentID: chunk.DocumentID,
					text:       chunk.ChunkText,
					configHash: configHash,
				})
				continue
			}
			return nil, err
		}
		result.Skipped++
		result.EmbeddingIDs = append(result.EmbeddingIDs, existing.EmbeddingID)
	}

	if len(toEmbed) == 0 {
		return result, nil
	}

	texts := make([]string, len(toEmbed))
	for i, item := range toEmbed {
		texts[i] = item.text
	}
	texts = preprocessTexts(texts, cfg.Preprocessing)

	vectors, err := strategy.Embed(ctx, texts, cfg)
	if err == nil && len(vectors) != len(texts) {
		err = fmt.Errorf("%w: strategy %s returned %d vectors for %d texts",
			core.ErrProviderContract, cfg.Strategy, len(vectors), len(texts))
	}
	if err != nil {
		p.failBatch(ctx, tenantID, toEmbed, cfg, err, result)
		return result, nil
	}

	normType := "none"
	if cfg.Normalize {
		normType = cfg.NormalizationType
		if normType != "L2" && normType != "L1" {
			normType = "L2"
		}
	}

	now := time.Now().UTC()
	records := make([]*core.Embedding, len(toEmbed))
	for i, item := range toEmbed {
		vector, originalNorm := normalizeVector(vectors[i], normType)
		records[i] = &core.Embedding{
			EmbeddingID: core.NewEmbeddingID(),
			TenantID:    tenantID,
			ChunkID:     item.chunkID,
			DocumentID:  item.documentID,
			Model:       cfg.Model,
			Strategy:    cfg.Strategy,
			ConfigHash:  item.configHash,
			Dimension:   len(vector),
			Vector:      vector,
			Norm: core.NormalizationInfo{
				Applied:      cfg.Normalize,
				NormType:     normType,
				OriginalNorm: originalNorm,
			},
			Status:     core.StatusProcessed,
			InsertedAt: now,
			UpdatedAt:  now,
		}
	}

	inserted, updated, err := p.embeddings.UpsertEmbeddings(ctx, records)
	if err != nil {
		return nil, err
	}
	result.Created = inserted
	result.Updated = updated
	// The store pins identity hits to their original ids, so read the ids
	// back from the records.
	for _, record := range records {
		result.EmbeddingIDs = append(result.EmbeddingIDs, record.EmbeddingID)
	}

	p.logger.Info("embedded chunks",
		"tenant_id", tenantID,
		"strategy", cfg.Strategy,
		"model", cfg.Model,
		"created", result.Created,
		"skipped", result.Skipped,
		"failed", result.Failed)

	return result, nil
}

// failBatch records one failed embedding per pending chunk, all carrying
// the same error message. Persistence is best-effort: the batch already
// failed, so a store error here is logged and swallowed.
func (p *Pipeline) failBatch(ctx context.Context, tenantID string, batch []pending, cfg *config.EmbeddingConfig, cause error, result *Result) {
	message := cause.Error()
	now := time.Now().UTC()
	records := make([]*core.Embedding, len(batch))
	for i, item := range batch {
		result.Failed++
		result.Errors = append(result.Errors, core.ItemError{
			ItemID:  item.chunkID,
			Message: message,
			Code:    core.CodeEmbeddingFailed,
		})
		records[i] = &core.Embedding{
			EmbeddingID:  core.NewEmbeddingID(),
			TenantID:     tenantID,
			ChunkID:      item.chunkID,
			DocumentID:   item.documentID,
			Model:        cfg.Model,
			Strategy:     cfg.Strategy,
			ConfigHash:   item.configHash,
			Norm:         core.NormalizationInfo{NormType: "none"},
			Status:       core.StatusFailed,
			ErrorMessage: message,
			InsertedAt:   now,
			UpdatedAt:    now,
		}
	}

	p.logger.Error("embedding batch failed",
		"tenant_id", tenantID,
		"strategy", cfg.Strategy,
		"count", len(batch),
		"err", cause)

	if _, _, err := p.embeddings.UpsertEmbeddings(ctx, records); err != nil {
		p.logger.Error("failed to record failed embeddings", "err", err)
	}
}
