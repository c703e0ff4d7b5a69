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


package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/vectorline/core"
	"github.com/poiesic/vectorline/storage"
)

// EmbeddingStore implements storage.EmbeddingStore for BadgerDB.
type EmbeddingStore struct {
	backend *Backend
}

var _ storage.EmbeddingStore = (*EmbeddingStore)(nil)

// NewEmbeddingStore creates a new EmbeddingStore.
func NewEmbeddingStore(backend *Backend) storage.EmbeddingStore {
	return &EmbeddingStore{backend: backend}
}

// FindByChunkAndConfigHash looks up an embedding by its identity triple.
func (s *EmbeddingStore) FindByChunkAndConfigHash(ctx context.Context, tenantID, chunkID, configHash string) (*core.Embedding, error) {
	var result *core.Embedding
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		embeddingID, err := readIndexedID(tx, makeEmbeddingHashKey(tenantID, chunkID, configHash))
		if err != nil {
			return err
		}
		if embeddingID == "" {
			return storage.ErrNotFound
		}
		result, err = readEmbedding(tx, makeEmbeddingKey(tenantID, embeddingID))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: find embedding: %v", core.ErrDependencyUnavailable, err)
	}
	return result, nil
}

// UpsertEmbeddings inserts or replaces embedding records, matched by
// (tenant, chunk id, config hash). When the identity already exists the
// stored record keeps the embedding id it was first written under, so
// downstream index documents stay stable across re-runs. Each record is
// written in its own transaction, so one failing record does not block the
// others; the first error is reported after the rest of the batch ran.
func (s *EmbeddingStore) UpsertEmbeddings(ctx context.Context, records []*core.Embedding) (int, int, error) {
	if len(records) == 0 {
		return 0, 0, nil
	}

	var inserted, updated int
	var firstErr error
	for _, record := range records {
		isInsert, err := s.upsertEmbedding(record)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if isInsert {
			inserted++
		} else {
			updated++
		}
	}
	if firstErr != nil {
		return inserted, updated, fmt.Errorf("%w: upsert embeddings: %v", core.ErrDependencyUnavailable, firstErr)
	}
	return inserted, updated, nil
}

func (s *EmbeddingStore) upsertEmbedding(record *core.Embedding) (bool, error) {
	var isInsert bool
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		hashKey := makeEmbeddingHashKey(record.TenantID, record.ChunkID, record.ConfigHash)

		existingID, err := readIndexedID(tx, hashKey)
		if err != nil {
			return err
		}

		// Serialized timestamps carry microsecond precision, so anything
		// finer would not survive a round-trip.
		now := time.Now().UTC().Truncate(time.Microsecond)
		record.UpdatedAt = now
		if existingID == "" {
			record.InsertedAt = now
			isInsert = true
		} else {
			old, err := readEmbedding(tx, makeEmbeddingKey(record.TenantID, existingID))
			if err != nil {
				return err
			}
			if old != nil {
				record.InsertedAt = old.InsertedAt
			}
			record.EmbeddingID = existingID
		}

		if err := tx.Set(makeEmbeddingKey(record.TenantID, record.EmbeddingID), storage.MarshalEmbedding(record)); err != nil {
			return err
		}
		if err := tx.Set(hashKey, []byte(record.EmbeddingID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	return isInsert, err
}

// GetEmbeddingsByIDs retrieves embeddings by their ids under the tenant.
func (s *EmbeddingStore) GetEmbeddingsByIDs(ctx context.Context, tenantID string, ids []string, onlyProcessed bool) ([]*core.Embedding, error) {
	var results []*core.Embedding
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			emb, err := readEmbedding(tx, makeEmbeddingKey(tenantID, id))
			if err != nil {
				return err
			}
			if emb == nil {
				continue
			}
			if onlyProcessed && (emb.Status != core.StatusProcessed || len(emb.Vector) == 0) {
				continue
			}
			results = append(results, emb)
		}
		return nil
	}, false)
	if err != nil {
		return nil, fmt.Errorf("%w: get embeddings: %v", core.ErrDependencyUnavailable, err)
	}
	return results, nil
}

// ListEmbeddingIDs returns up to limit ids of processed embeddings with
// non-empty vectors for the tenant.
func (s *EmbeddingStore) ListEmbeddingIDs(ctx context.Context, tenantID string, limit int) ([]string, error) {
	if limit < 1 {
		return nil, storage.ErrInvalidQuery
	}

	prefix := makeEmbeddingScanPrefix(tenantID)
	var ids []string
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid() && len(ids) < limit; iter.Next() {
			item := iter.Item()
			var emb *core.Embedding
			err := item.Value(func(val []byte) error {
				var err error
				emb, err = storage.UnmarshalEmbedding(val)
				return err
			})
			if err != nil {
				return err
			}
			if emb.Status != core.StatusProcessed || len(emb.Vector) == 0 {
				continue
			}
			ids = append(ids, string(bytes.TrimPrefix(item.Key(), prefix)))
		}
		return nil
	}, false)
	if err != nil {
		return nil, fmt.Errorf("%w: list embedding ids: %v", core.ErrDependencyUnavailable, err)
	}
	return ids, nil
}

// Close is a no-op; the backend owns the database handle.
func (s *EmbeddingStore) Close() error {
	return nil
}

// readEmbedding reads and unmarshals an embedding, returning nil when absent.
func readEmbedding(tx *badger.Txn, key []byte) (*core.Embedding, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var emb *core.Embedding
	err = item.Value(func(val []byte) error {
		emb, err = storage.UnmarshalEmbedding(val)
		return err
	})
	return emb, err
}
