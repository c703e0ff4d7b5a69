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


package vectorline

import (
	"context"
	"log/slog"

	"github.com/poiesic/vectorline/ai"
	"github.com/poiesic/vectorline/ai/bedrock"
	"github.com/poiesic/vectorline/ai/local"
	"github.com/poiesic/vectorline/ai/mock"
	"github.com/poiesic/vectorline/ai/openai"
	"github.com/poiesic/vectorline/chunking"
	"github.com/poiesic/vectorline/config"
	"github.com/poiesic/vectorline/core"
	"github.com/poiesic/vectorline/embedding"
	"github.com/poiesic/vectorline/index"
	"github.com/poiesic/vectorline/storage"
	"github.com/poiesic/vectorline/storage/badger"
)

// Service assembles the three pipeline stages over one badger database and
// one in-process vector index. Profile names passed to the stage methods are
// resolved through the config resolver; an inline config, when given, wins.
type Service struct {
	backend    *badger.Backend
	documents  storage.DocumentStore
	chunks     storage.ChunkStore
	embeddings storage.EmbeddingStore
	resolver   *config.Resolver
	registry   *ai.Registry
	vectors    index.VectorIndex
	engine     *chunking.Engine
	pipeline   *embedding.Pipeline
	publisher  *index.Publisher
	logger     *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	profilesPath string
	inMemory     bool
	poolSize     int
	logger       *slog.Logger
}

// WithProfiles points the service at a YAML profile file that replaces the
// embedded defaults.
func WithProfiles(path string) ServiceOption {
	return func(o *serviceOptions) {
		o.profilesPath = path
	}
}

// WithInMemory keeps all storage in memory. Useful for tests and dry runs.
func WithInMemory() ServiceOption {
	return func(o *serviceOptions) {
		o.inMemory = true
	}
}

// WithChunkingPoolSize sets the worker pool size used for multi-document
// chunking fan-out.
func WithChunkingPoolSize(size int) ServiceOption {
	return func(o *serviceOptions) {
		o.poolSize = size
	}
}

// WithLogger sets a custom logger for the service and its stages.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func NewService(filePath string, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	resolverOpts := []config.ResolverOption{}
	if options.profilesPath != "" {
		resolverOpts = append(resolverOpts, config.WithProfilesFile(options.profilesPath))
	}
	resolver, err := config.NewResolver(resolverOpts...)
	if err != nil {
		return nil, err
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	documents := badger.NewDocumentStore(backend)
	chunks := badger.NewChunkStore(backend)
	embeddings := badger.NewEmbeddingStore(backend)

	registry := ai.NewRegistry()
	registry.Register(openai.New())
	registry.Register(local.New())
	registry.Register(bedrock.New())
	registry.Register(mock.New())

	vectors := index.NewHNSWIndex()

	engineOpts := []chunking.Option{chunking.WithLogger(options.logger)}
	if options.poolSize > 0 {
		engineOpts = append(engineOpts, chunking.WithPoolSize(options.poolSize))
	}
	engine, err := chunking.NewEngine(documents, chunks, engineOpts...)
	if err != nil {
		backend.Close()
		return nil, err
	}

	pipeline, err := embedding.NewPipeline(chunks, embeddings, registry,
		embedding.WithLogger(options.logger))
	if err != nil {
		engine.Release()
		backend.Close()
		return nil, err
	}

	publisher, err := index.NewPublisher(embeddings, chunks, vectors,
		index.WithLogger(options.logger))
	if err != nil {
		engine.Release()
		backend.Close()
		return nil, err
	}

	return &Service{
		backend:    backend,
		documents:  documents,
		chunks:     chunks,
		embeddings: embeddings,
		resolver:   resolver,
		registry:   registry,
		vectors:    vectors,
		engine:     engine,
		pipeline:   pipeline,
		publisher:  publisher,
		logger:     options.logger,
	}, nil
}

// SeedDocument stores a raw document so the chunking stage has something to
// read. Re-seeding the same id replaces the content.
func (s *Service) SeedDocument(ctx context.Context, tenantID, documentID, content string) error {
	return s.documents.PutDocument(ctx, &core.RawDocument{
		TenantID:   tenantID,
		DocumentID: documentID,
		Content:    content,
	})
}

// ChunkDocument splits one document using the named chunking profile; an
// inline config, when given, overlays the resolved profile.
func (s *Service) ChunkDocument(ctx context.Context, tenantID, documentID, profile string, inline *config.ChunkingConfig) (*chunking.Result, error) {
	cfg, err := s.resolver.Chunking(profile, inline)
	if err != nil {
		return nil, err
	}
	return s.engine.ChunkDocument(ctx, tenantID, documentID, cfg.Strategy, &cfg)
}

// ChunkDocuments splits several documents concurrently under one profile,
// with inline overrides applied the same way as ChunkDocument. Per-document
// failures come back inside the batch result.
func (s *Service) ChunkDocuments(ctx context.Context, tenantID string, documentIDs []string, profile string, inline *config.ChunkingConfig) (*chunking.BatchResult, error) {
	cfg, err := s.resolver.Chunking(profile, inline)
	if err != nil {
		return nil, err
	}
	return s.engine.ChunkDocuments(ctx, tenantID, documentIDs, cfg.Strategy, &cfg)
}

// EmbedChunks generates embeddings for the given chunk ids using the named
// embedding profile; an inline config, when given, overlays the resolved
// profile.
func (s *Service) EmbedChunks(ctx context.Context, tenantID string, chunkIDs []string, profile string, inline *config.EmbeddingConfig) (*embedding.Result, error) {
	cfg, err := s.resolver.Embedding(profile, inline)
	if err != nil {
		return nil, err
	}
	return s.pipeline.EmbedChunks(ctx, tenantID, chunkIDs, &cfg)
}

// PublishEmbeddings publishes processed embeddings into the named vector
// index under the named indexing profile; an inline config, when given,
// overlays the resolved profile.
func (s *Service) PublishEmbeddings(ctx context.Context, tenantID string, embeddingIDs []string, indexName, profile string, inline *config.IndexingConfig) (*index.Result, error) {
	cfg, err := s.resolver.Indexing(profile, inline)
	if err != nil {
		return nil, err
	}
	return s.publisher.Publish(ctx, tenantID, embeddingIDs, indexName, &cfg)
}

// Search queries the named vector index directly. Exposed mainly so publish
// results can be spot-checked; query-time ranking is out of scope here.
func (s *Service) Search(ctx context.Context, indexName string, query []float32, k int) ([]*core.VectorEntry, error) {
	return s.vectors.Search(ctx, indexName, query, k)
}

func (s *Service) DocumentStore() storage.DocumentStore {
	return s.documents
}

func (s *Service) ChunkStore() storage.ChunkStore {
	return s.chunks
}

func (s *Service) EmbeddingStore() storage.EmbeddingStore {
	return s.embeddings
}

// Resolver exposes the profile resolver so callers can reload profiles.
func (s *Service) Resolver() *config.Resolver {
	return s.resolver
}

// Registry exposes the embedding strategy registry for custom providers.
func (s *Service) Registry() *ai.Registry {
	return s.registry
}

func (s *Service) Close() error {
	s.engine.Release()

	if err := s.vectors.Close(); err != nil {
		s.logger.Error("error closing vector index", "err", err)
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
