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


package chunking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/vectorline/config"
	"github.com/poiesic/vectorline/core"
	"github.com/poiesic/vectorline/storage"
)

// Configuration errors returned by NewEngine.
var (
	ErrDocumentStoreRequired = errors.New("document store is required")
	ErrChunkStoreRequired    = errors.New("chunk store is required")
)

// Engine runs the chunking stage: load a document, clean its text, apply
// the named strategy, and upsert the resulting chunk records.
type Engine struct {
	documents storage.DocumentStore
	chunks    storage.ChunkStore
	pool      *ants.Pool
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithPoolSize sets the worker pool size for multi-document fan-out.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(e *Engine) error {
		if size < 1 {
			size = 1
		}
		if e.pool != nil {
			e.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		e.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// NewEngine creates a chunking engine over the given stores.
func NewEngine(documents storage.DocumentStore, chunks storage.ChunkStore, opts ...Option) (*Engine, error) {
	if documents == nil {
		return nil, ErrDocumentStoreRequired
	}
	if chunks == nil {
		return nil, ErrChunkStoreRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		documents: documents,
		chunks:    chunks,
		pool:      pool,
		logger:    slog.Default().With("component", "chunking-engine"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			e.Release()
			return nil, err
		}
	}
	return e, nil
}

// Result is the outcome of chunking one document.
type Result struct {
	ChunkIDs []string
	Inserted int
	Updated  int
}

// BatchResult aggregates the outcomes of chunking several documents.
// Per-document failures are captured in Errors, never raised, so one bad
// document does not fail its siblings.
type BatchResult struct {
	Results map[string]*Result
	Errors  []core.ItemError
}

// ChunkDocument chunks one document under the given config and upserts the
// records. A re-run over unchanged content hits the same chunk hashes and
// produces zero inserts.
//
// Fails with core.ErrDocumentNotFound when the document is absent,
// core.ErrUnknownStrategy for an unregistered strategy name, and
// core.ErrDependencyUnavailable on storage failure.
func (e *Engine) ChunkDocument(ctx context.Context, tenantID, documentID, strategyName string, cfg *config.ChunkingConfig) (*Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: chunking config is required", core.ErrInvariantViolation)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strategyName == "" {
		strategyName = cfg.Strategy
	}

	splitFn, err := resolveStrategy(strategyName)
	if err != nil {
		return nil, err
	}

	doc, err := e.documents.GetDocument(ctx, tenantID, documentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: tenant %s document %s", core.ErrDocumentNotFound, tenantID, documentID)
		}
		return nil, err
	}

	records, err := e.buildRecords(splitFn, tenantID, documentID, strategyName, doc.Content, cfg)
	if err != nil {
		return nil, err
	}

	inserted, updated, err := e.chunks.UpsertChunks(ctx, tenantID, documentID, records)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(records))
	for i, record := range records {
		ids[i] = record.ChunkID
	}

	e.logger.Info("chunked document",
		"tenant_id", tenantID,
		"document_id", documentID,
		"strategy", strategyName,
		"chunks", len(ids),
		"inserted", inserted,
		"updated", updated)

	return &Result{ChunkIDs: ids, Inserted: inserted, Updated: updated}, nil
}

// ChunkDocuments chunks several documents concurrently, one task per
// document on the worker pool. Failures are isolated per document.
func (e *Engine) ChunkDocuments(ctx context.Context, tenantID string, documentIDs []string, strategyName string, cfg *config.ChunkingConfig) (*BatchResult, error) {
	batch := &BatchResult{Results: make(map[string]*Result, len(documentIDs))}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, documentID := range documentIDs {
		documentID := documentID
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			result, err := e.ChunkDocument(ctx, tenantID, documentID, strategyName, cfg)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				batch.Errors = append(batch.Errors, core.ItemError{
					ItemID:  documentID,
					Message: err.Error(),
					Code:    core.CodeChunkingFailed,
				})
				return
			}
			batch.Results[documentID] = result
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			batch.Errors = append(batch.Errors, core.ItemError{
				ItemID:  documentID,
				Message: err.Error(),
				Code:    core.CodeChunkingFailed,
			})
			mu.Unlock()
		}
	}
	wg.Wait()

	// Deterministic error order for callers and tests.
	sort.Slice(batch.Errors, func(i, j int) bool {
		return batch.Errors[i].ItemID < batch.Errors[j].ItemID
	})
	return batch, nil
}

// buildRecords turns document content into chunk records with
// content-derived identities.
func (e *Engine) buildRecords(splitFn SplitFunc, tenantID, documentID, strategyName, content string, cfg *config.ChunkingConfig) ([]*core.Chunk, error) {
	cleaned := Clean(content, cfg.PreserveWhitespace)

	texts, err := splitFn(cleaned, cfg)
	if err != nil {
		return nil, err
	}

	canonical, err := cfg.CanonicalJSON()
	if err != nil {
		return nil, err
	}
	tok, err := forTokenizer(cfg.Tokenizer)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	records := make([]*core.Chunk, 0, len(texts))
	for i, text := range texts {
		hash := core.ChunkHash(text, strategyName, canonical)
		tokenCount, err := tok.count(text)
		if err != nil {
			return nil, err
		}
		records = append(records, &core.Chunk{
			ChunkID:    core.ChunkID(documentID, i, hash),
			TenantID:   tenantID,
			DocumentID: documentID,
			ChunkIndex: i,
			ChunkText:  text,
			Strategy:   strategyName,
			Config:     canonical,
			TokenSize:  cfg.ChunkSize,
			TokenCount: tokenCount,
			Overlap:    cfg.Overlap,
			ChunkHash:  hash,
			Status:     core.StatusPending,
			InsertedAt: now,
			UpdatedAt:  now,
		})
	}
	return records, nil
}

// Release frees the worker pool. The engine should not be used after
// calling Release.
func (e *Engine) Release() {
	if e.pool != nil {
		e.pool.Release()
	}
}
