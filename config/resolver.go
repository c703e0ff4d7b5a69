package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/vectorline/core"
)

//go:embed profiles.yaml
var defaultProfiles []byte

// activeName selects the profile marked active in the profile file.
const activeName = "active"

// Strategy-name aliases. Callers may pass a strategy name where a profile
// name is expected; it resolves to that strategy's default profile.
var (
	embeddingAliases = map[string]string{
		"openai":                "openai_default",
		"sentence_transformers": "sentence_default",
		"bedrock":               "bedrock_default",
		"mock":                  "mock_default",
	}
	indexingAliases = map[string]string{
		"cosine_knn":      "cosine_default",
		"l2_knn":          "l2_default",
		"dot_product_knn": "dot_product_default",
		"hnsw":            "cosine_default",
	}
)

type profileSection[T any] struct {
	Active   string       `yaml:"active"`
	Profiles map[string]T `yaml:"profiles"`
}

type profileFile struct {
	Chunking  profileSection[ChunkingConfig]  `yaml:"chunking"`
	Embedding profileSection[EmbeddingConfig] `yaml:"embedding"`
	Indexing  profileSection[IndexingConfig]  `yaml:"indexing"`
}

// Resolver owns the process-wide configuration profiles. It is loaded
// explicitly at construction and can be reloaded explicitly; there is no
// ambient global cache. Reads are cheap and safe for concurrent use.
type Resolver struct {
	mu     sync.RWMutex
	path   string // optional override file; empty means embedded defaults only
	logger *slog.Logger

	chunking  profileSection[ChunkingConfig]
	embedding profileSection[EmbeddingConfig]
	indexing  profileSection[IndexingConfig]
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithProfilesFile points the resolver at a YAML profile file that replaces
// the embedded defaults.
func WithProfilesFile(path string) ResolverOption {
	return func(r *Resolver) {
		r.path = path
	}
}

// WithResolverLogger sets a custom logger.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a Resolver and loads profiles immediately.
func NewResolver(opts ...ResolverOption) (*Resolver, error) {
	r := &Resolver{
		logger: slog.Default().With("component", "config-resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the profile source. Callers decide when configuration
// changes take effect; nothing reloads implicitly.
func (r *Resolver) Reload() error {
	raw := defaultProfiles
	if r.path != "" {
		data, err := os.ReadFile(r.path)
		if err != nil {
			return fmt.Errorf("read profiles file: %w", err)
		}
		raw = data
	}

	var pf profileFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return fmt.Errorf("parse profiles: %w", err)
	}

	r.mu.Lock()
	r.chunking = pf.Chunking
	r.embedding = pf.Embedding
	r.indexing = pf.Indexing
	r.mu.Unlock()

	r.logger.Debug("profiles loaded",
		"chunking", len(pf.Chunking.Profiles),
		"embedding", len(pf.Embedding.Profiles),
		"indexing", len(pf.Indexing.Profiles))
	return nil
}

// Chunking resolves a chunking config by profile name. An empty name or
// "active" selects the profile marked active in the profile file. An inline
// config, when given, overlays the resolved profile: zero-valued inline
// fields keep the profile's values.
func (r *Resolver) Chunking(name string, inline *ChunkingConfig) (ChunkingConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" || name == activeName {
		name = r.chunking.Active
	}
	cfg, ok := r.chunking.Profiles[name]
	if !ok {
		return ChunkingConfig{}, fmt.Errorf("%w: chunking profile %q", core.ErrUnknownProfile, name)
	}
	if inline != nil {
		cfg = overlayChunking(cfg, inline)
	}
	if err := cfg.Validate(); err != nil {
		return ChunkingConfig{}, err
	}
	return cfg, nil
}

// Embedding resolves an embedding config by profile name or strategy alias.
// An inline config, when given, overlays the resolved profile: zero-valued
// inline fields keep the profile's values.
func (r *Resolver) Embedding(name string, inline *EmbeddingConfig) (EmbeddingConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" || name == activeName {
		name = r.embedding.Active
	}
	if alias, ok := embeddingAliases[name]; ok {
		name = alias
	}
	cfg, ok := r.embedding.Profiles[name]
	if !ok {
		return EmbeddingConfig{}, fmt.Errorf("%w: embedding profile %q", core.ErrUnknownProfile, name)
	}
	if inline != nil {
		cfg = overlayEmbedding(cfg, inline)
	}
	if err := cfg.Validate(); err != nil {
		return EmbeddingConfig{}, err
	}
	return cfg, nil
}

// Indexing resolves an indexing config by profile name or strategy alias.
// An inline config, when given, overlays the resolved profile: zero-valued
// inline fields keep the profile's values.
func (r *Resolver) Indexing(name string, inline *IndexingConfig) (IndexingConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" || name == activeName {
		name = r.indexing.Active
	}
	if alias, ok := indexingAliases[name]; ok {
		name = alias
	}
	cfg, ok := r.indexing.Profiles[name]
	if !ok {
		return IndexingConfig{}, fmt.Errorf("%w: indexing profile %q", core.ErrUnknownProfile, name)
	}
	if inline != nil {
		cfg = overlayIndexing(cfg, inline)
	}
	if err := cfg.Validate(); err != nil {
		return IndexingConfig{}, err
	}
	return cfg, nil
}

// The overlay helpers merge caller-supplied overrides onto a resolved
// profile, field by field. A zero value means "not provided"; boolean
// options can be switched on inline but only a profile can switch them off.

func overlayChunking(base ChunkingConfig, inline *ChunkingConfig) ChunkingConfig {
	if inline.Strategy != "" {
		base.Strategy = inline.Strategy
	}
	if inline.ChunkSize > 0 {
		base.ChunkSize = inline.ChunkSize
	}
	if inline.Overlap > 0 {
		base.Overlap = inline.Overlap
	}
	if inline.Tokenizer != "" {
		base.Tokenizer = inline.Tokenizer
	}
	if inline.MinChunkSize > 0 {
		base.MinChunkSize = inline.MinChunkSize
	}
	if inline.MaxChunkSize > 0 {
		base.MaxChunkSize = inline.MaxChunkSize
	}
	if inline.PreserveWhitespace {
		base.PreserveWhitespace = true
	}
	return base
}

func overlayEmbedding(base EmbeddingConfig, inline *EmbeddingConfig) EmbeddingConfig {
	if inline.Strategy != "" {
		base.Strategy = inline.Strategy
	}
	if inline.Model != "" {
		base.Model = inline.Model
	}
	if inline.Normalize {
		base.Normalize = true
	}
	if inline.NormalizationType != "" {
		base.NormalizationType = inline.NormalizationType
	}
	if inline.BatchSize > 0 {
		base.BatchSize = inline.BatchSize
	}
	if inline.Host != "" {
		base.Host = inline.Host
	}
	if inline.Region != "" {
		base.Region = inline.Region
	}
	if inline.APIKey != "" {
		base.APIKey = inline.APIKey
	}
	if inline.Preprocessing.Lowercase {
		base.Preprocessing.Lowercase = true
	}
	if inline.Preprocessing.RemovePunctuation {
		base.Preprocessing.RemovePunctuation = true
	}
	if inline.Preprocessing.MaxLength > 0 {
		base.Preprocessing.MaxLength = inline.Preprocessing.MaxLength
	}
	return base
}

func overlayIndexing(base IndexingConfig, inline *IndexingConfig) IndexingConfig {
	if inline.Similarity != "" {
		base.Similarity = inline.Similarity
	}
	if inline.HNSW.M > 0 {
		base.HNSW.M = inline.HNSW.M
	}
	if inline.HNSW.EfConstruction > 0 {
		base.HNSW.EfConstruction = inline.HNSW.EfConstruction
	}
	if inline.HNSW.EfSearch > 0 {
		base.HNSW.EfSearch = inline.HNSW.EfSearch
	}
	return base
}
