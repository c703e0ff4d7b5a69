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


package config

import (
	"fmt"

	"github.com/poiesic/vectorline/core"
)

// ChunkingConfig holds the parameters of one chunking run.
type ChunkingConfig struct {
	Strategy           string `json:"strategy" yaml:"strategy"`
	ChunkSize          int    `json:"chunk_size" yaml:"chunk_size"`
	Overlap            int    `json:"overlap" yaml:"overlap"`
	Tokenizer          string `json:"tokenizer,omitempty" yaml:"tokenizer"`
	MinChunkSize       int    `json:"min_chunk_size,omitempty" yaml:"min_chunk_size"`
	MaxChunkSize       int    `json:"max_chunk_size,omitempty" yaml:"max_chunk_size"`
	PreserveWhitespace bool   `json:"preserve_whitespace" yaml:"preserve_whitespace"`
}

// DefaultChunkingConfig returns a ChunkingConfig with the stock parameters.
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		Strategy:           "fixed_token",
		ChunkSize:          512,
		Overlap:            50,
		PreserveWhitespace: true,
	}
}

// Validate checks the chunking parameters. Overlap may exceed ChunkSize here;
// strategies clamp it so the window step stays positive.
func (c *ChunkingConfig) Validate() error {
	if c.Strategy == "" {
		return fmt.Errorf("%w: chunking strategy is required", core.ErrInvariantViolation)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk_size must be >= 1, got %d", core.ErrInvariantViolation, c.ChunkSize)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap must be >= 0, got %d", core.ErrInvariantViolation, c.Overlap)
	}
	if c.MinChunkSize < 0 || c.MaxChunkSize < 0 {
		return fmt.Errorf("%w: min/max chunk size must be >= 0", core.ErrInvariantViolation)
	}
	return nil
}

// EffectiveMinChunkSize returns the configured minimum or the default of 1.
func (c *ChunkingConfig) EffectiveMinChunkSize() int {
	if c.MinChunkSize >= 1 {
		return c.MinChunkSize
	}
	return 1
}

// EffectiveMaxChunkSize returns the configured hard cap or the default of
// twice the target chunk size.
func (c *ChunkingConfig) EffectiveMaxChunkSize() int {
	if c.MaxChunkSize >= 1 {
		return c.MaxChunkSize
	}
	return 2 * c.ChunkSize
}

// CanonicalJSON renders the config in identity-stable form for hashing.
func (c *ChunkingConfig) CanonicalJSON() (string, error) {
	return core.CanonicalJSON(c)
}

// Preprocessing holds the text preprocessing options applied before an
// embedding provider call.
type Preprocessing struct {
	Lowercase         bool `json:"lowercase" yaml:"lowercase"`
	RemovePunctuation bool `json:"remove_punctuation" yaml:"remove_punctuation"`
	MaxLength         int  `json:"max_length" yaml:"max_length"`
}

// EmbeddingConfig holds the parameters of one embedding run.
//
// APIKey carries a credential and is excluded from JSON, and therefore from
// the embedding-config hash: rotating a key must not create new embedding
// identities.
type EmbeddingConfig struct {
	Strategy          string        `json:"strategy" yaml:"strategy"`
	Model             string        `json:"model" yaml:"model"`
	Normalize         bool          `json:"normalize" yaml:"normalize"`
	NormalizationType string        `json:"normalization_type" yaml:"normalization_type"`
	Preprocessing     Preprocessing `json:"preprocessing" yaml:"preprocessing"`
	BatchSize         int           `json:"batch_size" yaml:"batch_size"`
	Host              string        `json:"host,omitempty" yaml:"host"`
	Region            string        `json:"region,omitempty" yaml:"region"`
	APIKey            string        `json:"-" yaml:"api_key"`
}

// DefaultEmbeddingConfig returns an EmbeddingConfig with the stock parameters.
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		Strategy:          "mock",
		Model:             "mock-embedder",
		Normalize:         true,
		NormalizationType: "L2",
		Preprocessing:     Preprocessing{MaxLength: 8192},
		BatchSize:         100,
	}
}

// Validate checks the embedding parameters.
func (c *EmbeddingConfig) Validate() error {
	if c.Strategy == "" {
		return fmt.Errorf("%w: embedding strategy is required", core.ErrInvariantViolation)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: embedding model is required", core.ErrInvariantViolation)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch_size must be >= 1, got %d", core.ErrInvariantViolation, c.BatchSize)
	}
	if c.Preprocessing.MaxLength < 1 {
		return fmt.Errorf("%w: preprocessing max_length must be >= 1", core.ErrInvariantViolation)
	}
	switch c.NormalizationType {
	case "L2", "L1", "none":
	default:
		return fmt.Errorf("%w: normalization_type must be L2, L1, or none, got %q",
			core.ErrInvariantViolation, c.NormalizationType)
	}
	return nil
}

// CanonicalJSON renders the non-secret config fields in identity-stable form.
// APIKey never appears in the output.
func (c *EmbeddingConfig) CanonicalJSON() (string, error) {
	return core.CanonicalJSON(c)
}

// HNSWConfig holds graph tuning parameters for vector index creation.
type HNSWConfig struct {
	M              int `json:"m" yaml:"m"`
	EfConstruction int `json:"ef_construction" yaml:"ef_construction"`
	EfSearch       int `json:"ef_search,omitempty" yaml:"ef_search"`
}

// IndexingConfig holds the parameters of one publish run.
type IndexingConfig struct {
	Similarity string     `json:"similarity" yaml:"similarity"`
	HNSW       HNSWConfig `json:"hnsw_config" yaml:"hnsw_config"`
}

// DefaultIndexingConfig returns an IndexingConfig with the stock parameters.
func DefaultIndexingConfig() IndexingConfig {
	return IndexingConfig{
		Similarity: "cosine",
		HNSW:       HNSWConfig{M: 16, EfConstruction: 200},
	}
}

// Validate checks the indexing parameters.
func (c *IndexingConfig) Validate() error {
	switch c.Similarity {
	case "cosine", "l2", "dot_product":
	default:
		return fmt.Errorf("%w: similarity must be cosine, l2, or dot_product, got %q",
			core.ErrInvariantViolation, c.Similarity)
	}
	if c.HNSW.M < 1 {
		return fmt.Errorf("%w: hnsw m must be >= 1, got %d", core.ErrInvariantViolation, c.HNSW.M)
	}
	if c.HNSW.EfConstruction < 1 {
		return fmt.Errorf("%w: hnsw ef_construction must be >= 1, got %d",
			core.ErrInvariantViolation, c.HNSW.EfConstruction)
	}
	return nil
}
