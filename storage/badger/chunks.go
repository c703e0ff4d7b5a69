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

// ChunkStore implements storage.ChunkStore for BadgerDB.
type ChunkStore struct {
	backend *Backend
}

var _ storage.ChunkStore = (*ChunkStore)(nil)

// NewChunkStore creates a new ChunkStore.
func NewChunkStore(backend *Backend) storage.ChunkStore {
	return &ChunkStore{backend: backend}
}

// UpsertChunks inserts or replaces chunk records, matched by
// (tenant, document, chunk hash). A record whose identity already exists
// replaces the stored record and keeps its original InsertedAt. Each record
// is written in its own transaction, so one failing record does not block
// the others; the first error is reported after the rest of the batch ran.
func (s *ChunkStore) UpsertChunks(ctx context.Context, tenantID, documentID string, records []*core.Chunk) (int, int, error) {
	if len(records) == 0 {
		return 0, 0, nil
	}

	var inserted, updated int
	var firstErr error
	for _, record := range records {
		isInsert, err := s.upsertChunk(tenantID, documentID, record)
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
		return inserted, updated, fmt.Errorf("%w: upsert chunks: %v", core.ErrDependencyUnavailable, firstErr)
	}
	return inserted, updated, nil
}

func (s *ChunkStore) upsertChunk(tenantID, documentID string, record *core.Chunk) (bool, error) {
	var isInsert bool
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		hashKey := makeChunkHashKey(tenantID, documentID, record.ChunkHash)

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
			old, err := readChunk(tx, makeChunkKey(tenantID, existingID))
			if err != nil {
				return err
			}
			if old != nil {
				record.InsertedAt = old.InsertedAt
			}
			// The identity maps to an existing record; replace it in place.
			// The id is hash-derived, so it can only differ when the chunk
			// moved to another index within the document.
			if existingID != record.ChunkID {
				if err := tx.Delete(makeChunkKey(tenantID, existingID)); err != nil {
					return err
				}
			}
		}

		if err := tx.Set(makeChunkKey(tenantID, record.ChunkID), storage.MarshalChunk(record)); err != nil {
			return err
		}
		if err := tx.Set(hashKey, []byte(record.ChunkID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	return isInsert, err
}

// GetChunksByIDs retrieves chunks by their ids under the tenant.
// Missing ids are skipped, not reported.
func (s *ChunkStore) GetChunksByIDs(ctx context.Context, tenantID string, ids []string) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			chunk, err := readChunk(tx, makeChunkKey(tenantID, id))
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, fmt.Errorf("%w: get chunks: %v", core.ErrDependencyUnavailable, err)
	}
	return results, nil
}

// ListChunkIDs returns up to limit chunk ids for the tenant.
func (s *ChunkStore) ListChunkIDs(ctx context.Context, tenantID string, limit int) ([]string, error) {
	if limit < 1 {
		return nil, storage.ErrInvalidQuery
	}

	prefix := makeChunkScanPrefix(tenantID)
	var ids []string
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid() && len(ids) < limit; iter.Next() {
			key := iter.Item().Key()
			ids = append(ids, string(bytes.TrimPrefix(key, prefix)))
		}
		return nil
	}, false)
	if err != nil {
		return nil, fmt.Errorf("%w: list chunk ids: %v", core.ErrDependencyUnavailable, err)
	}
	return ids, nil
}

// Close is a no-op; the backend owns the database handle.
func (s *ChunkStore) Close() error {
	return nil
}

// readChunk reads and unmarshals a chunk, returning nil when the key is absent.
func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		chunk, err = storage.UnmarshalChunk(val)
		return err
	})
	return chunk, err
}

// readIndexedID reads an identity-index value, returning "" when absent.
func readIndexedID(tx *badger.Txn, key []byte) (string, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", nil
		}
		return "", err
	}
	var id string
	err = item.Value(func(val []byte) error {
		id = string(val)
		return nil
	})
	return id, err
}
