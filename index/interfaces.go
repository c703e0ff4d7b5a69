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

	"github.com/poiesic/vectorline/config"
	"github.com/poiesic/vectorline/core"
)

// VectorIndex manages named vector indexes and their entries.
type VectorIndex interface {
	// Exists reports whether the named index exists.
	Exists(ctx context.Context, name string) (bool, error)

	// Dimension returns the vector dimension of the named index.
	// ok is false when the index is absent or its dimension cannot be
	// determined.
	Dimension(ctx context.Context, name string) (dimension int, ok bool, err error)

	// Create creates the named index with the given geometry and HNSW
	// tuning parameters. Fails if the index already exists.
	Create(ctx context.Context, name string, dimension int, similarity string, hnswCfg config.HNSWConfig) error

	// Delete removes the named index and everything in it.
	Delete(ctx context.Context, name string) error

	// BulkUpsert writes entries keyed by embedding id: re-publishing the
	// same embedding to the same index updates in place. Per-item failures
	// come back in failed; err is reserved for index-level failures where
	// nothing was attempted.
	BulkUpsert(ctx context.Context, name string, entries []*core.VectorEntry) (successIDs []string, failed []core.ItemError, err error)

	// Search returns up to k entries nearest to the query vector.
	Search(ctx context.Context, name string, query []float32, k int) ([]*core.VectorEntry, error)

	// Close releases index resources.
	Close() error
}
