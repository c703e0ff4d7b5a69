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
	"fmt"
	"log/slog"
	"sync"

	"github.com/coder/hnsw"

	"github.com/poiesic/vectorline/config"
	"github.com/poiesic/vectorline/core"
)

// namedIndex is one HNSW graph plus the entry payloads it serves.
//
// coder/hnsw panics when a live key is re-added and its Delete breaks when
// the last node is removed, so replaced nodes are never touched: the old
// node is orphaned (dropped from entries/keys) and the replacement gets a
// fresh salted key. Search oversamples by the orphan count so stale nodes
// cannot crowd live ones out of the top k.
type namedIndex struct {
	graph      *hnsw.Graph[uint64]
	dimension  int
	similarity string
	keys       map[string]uint64 // embedding id -> live graph key
	entries    map[uint64]*core.VectorEntry
	orphans    int
	seq        uint64
}

// HNSWIndex implements VectorIndex over in-process coder/hnsw graphs,
// one per index name. Graph nodes are keyed by a BLAKE2b-derived key of
// the embedding id, so upserting the same embedding replaces its node's
// payload instead of duplicating it.
type HNSWIndex struct {
	mu      sync.RWMutex
	indexes map[string]*namedIndex
	logger  *slog.Logger
}

var _ VectorIndex = (*HNSWIndex)(nil)

// NewHNSWIndex creates an empty in-process vector index manager.
func NewHNSWIndex() *HNSWIndex {
	return &HNSWIndex{
		indexes: make(map[string]*namedIndex),
		logger:  slog.Default().With("component", "hnsw-index"),
	}
}

// Exists reports whether the named index exists.
func (x *HNSWIndex) Exists(ctx context.Context, name string) (bool, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.indexes[name]
	return ok, nil
}

// Dimension returns the vector dimension of the named index.
func (x *HNSWIndex) Dimension(ctx context.Context, name string) (int, bool, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	idx, ok := x.indexes[name]
	if !ok || idx.dimension == 0 {
		return 0, false, nil
	}
	return idx.dimension, true, nil
}

// Create creates the named index with the given geometry.
func (x *HNSWIndex) Create(ctx context.Context, name string, dimension int, similarity string, hnswCfg config.HNSWConfig) error {
	if dimension < 1 {
		return fmt.Errorf("%w: index dimension must be >= 1, got %d", core.ErrInvariantViolation, dimension)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.indexes[name]; ok {
		return fmt.Errorf("%w: index %q already exists", core.ErrInvariantViolation, name)
	}

	graph := hnsw.NewGraph[uint64]()
	switch similarity {
	case "l2":
		graph.Distance = hnsw.EuclideanDistance
	case "cosine", "dot_product":
		graph.Distance = hnsw.CosineDistance
	default:
		return fmt.Errorf("%w: similarity %q", core.ErrInvariantViolation, similarity)
	}
	if hnswCfg.M > 0 {
		graph.M = hnswCfg.M
	}
	// coder/hnsw has a single beam-width knob used for both insertion and
	// search, so ef_construction stands in when ef_search is not set.
	switch {
	case hnswCfg.EfSearch > 0:
		graph.EfSearch = hnswCfg.EfSearch
	case hnswCfg.EfConstruction > 0:
		graph.EfSearch = hnswCfg.EfConstruction
	}

	x.indexes[name] = &namedIndex{
		graph:      graph,
		dimension:  dimension,
		similarity: similarity,
		keys:       make(map[string]uint64),
		entries:    make(map[uint64]*core.VectorEntry),
	}
	x.logger.Info("index created", "index", name, "dimension", dimension, "similarity", similarity)
	return nil
}

// Delete removes the named index. Deleting an absent index is a no-op.
func (x *HNSWIndex) Delete(ctx context.Context, name string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.indexes, name)
	x.logger.Info("index deleted", "index", name)
	return nil
}

// BulkUpsert writes entries keyed by embedding id.
func (x *HNSWIndex) BulkUpsert(ctx context.Context, name string, entries []*core.VectorEntry) ([]string, []core.ItemError, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	idx, ok := x.indexes[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: index %q does not exist", core.ErrDependencyUnavailable, name)
	}

	var successIDs []string
	var failed []core.ItemError
	for _, entry := range entries {
		if len(entry.Vector) != idx.dimension {
			failed = append(failed, core.ItemError{
				ItemID:  entry.EmbeddingID,
				Message: fmt.Sprintf("vector dimension %d does not match index dimension %d", len(entry.Vector), idx.dimension),
				Code:    core.CodeIndexFailed,
			})
			continue
		}
		key, live := idx.keys[entry.EmbeddingID]
		switch {
		case !live:
			key = core.IndexKey(entry.EmbeddingID)
			idx.graph.Add(hnsw.MakeNode(key, entry.Vector))
		case !vectorsEqual(idx.entries[key].Vector, entry.Vector):
			// The vector changed: orphan the old node and add the
			// replacement under a salted key.
			delete(idx.entries, key)
			idx.orphans++
			idx.seq++
			key = core.IndexKey(fmt.Sprintf("%s#%d", entry.EmbeddingID, idx.seq))
			idx.graph.Add(hnsw.MakeNode(key, entry.Vector))
		default:
			// Same vector: the graph node is already correct, only
			// the payload is refreshed.
		}
		idx.keys[entry.EmbeddingID] = key
		idx.entries[key] = entry
		successIDs = append(successIDs, entry.EmbeddingID)
	}
	return successIDs, failed, nil
}

func vectorsEqual(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Search returns up to k entries nearest to the query vector.
func (x *HNSWIndex) Search(ctx context.Context, name string, query []float32, k int) ([]*core.VectorEntry, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	idx, ok := x.indexes[name]
	if !ok {
		return nil, fmt.Errorf("%w: index %q does not exist", core.ErrDependencyUnavailable, name)
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: query dimension %d does not match index dimension %d",
			core.ErrInvariantViolation, len(query), idx.dimension)
	}
	if idx.graph.Len() == 0 {
		return nil, nil
	}

	// Oversample by the orphan count so lazily deleted nodes cannot
	// displace live entries from the top k.
	nodes := idx.graph.Search(query, k+idx.orphans)
	results := make([]*core.VectorEntry, 0, k)
	for _, node := range nodes {
		if entry, ok := idx.entries[node.Key]; ok {
			results = append(results, entry)
			if len(results) == k {
				break
			}
		}
	}
	return results, nil
}

// Close releases all indexes.
func (x *HNSWIndex) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.indexes = make(map[string]*namedIndex)
	return nil
}
