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


// Package openai implements the embedding strategy for OpenAI-compatible
// APIs (OpenAI itself, or local services such as Ollama, LocalAI, vLLM)
// through the langchaingo library.
package openai

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/poiesic/vectorline/ai"
	"github.com/poiesic/vectorline/config"
)

const defaultHost = "https://api.openai.com/v1"

// Strategy implements ai.EmbeddingStrategy against OpenAI-compatible
// embedding endpoints. Clients are cached per (host, model) pair so
// repeated batches against the same endpoint reuse the connection.
type Strategy struct {
	mu      sync.Mutex
	clients map[string]embeddings.Embedder
	logger  *slog.Logger
}

var _ ai.EmbeddingStrategy = (*Strategy)(nil)

// New creates the OpenAI embedding strategy.
func New() *Strategy {
	return &Strategy{
		clients: make(map[string]embeddings.Embedder),
		logger:  slog.Default().With("component", "openai-embedder"),
	}
}

// Name returns the strategy identifier.
func (s *Strategy) Name() string {
	return "openai"
}

// Embed generates one embedding per text through the configured endpoint.
func (s *Strategy) Embed(ctx context.Context, texts []string, cfg *config.EmbeddingConfig) ([][]float32, error) {
	embedder, err := s.embedderFor(cfg)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("generating embeddings", "count", len(texts), "model", cfg.Model)
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		s.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	return vectors, nil
}

// embedderFor returns a cached client for the config's endpoint, creating
// it on first use.
func (s *Strategy) embedderFor(cfg *config.EmbeddingConfig) (embeddings.Embedder, error) {
	host := cfg.Host
	if host == "" {
		host = defaultHost
	}
	// Cache key deliberately excludes the credential.
	key := host + "|" + cfg.Model

	s.mu.Lock()
	defer s.mu.Unlock()
	if embedder, ok := s.clients[key]; ok {
		return embedder, nil
	}

	// "none" keeps local OpenAI-compatible services that skip auth happy.
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(host),
		openai.WithToken(token),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	s.clients[key] = embedder
	return embedder, nil
}
