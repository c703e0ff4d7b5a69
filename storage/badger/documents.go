package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/vectorline/core"
	"github.com/poiesic/vectorline/storage"
)

// DocumentStore implements storage.DocumentStore for BadgerDB.
type DocumentStore struct {
	backend *Backend
}

var _ storage.DocumentStore = (*DocumentStore)(nil)

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(backend *Backend) storage.DocumentStore {
	return &DocumentStore{backend: backend}
}

// GetDocument retrieves a raw document by id under the tenant.
func (s *DocumentStore) GetDocument(ctx context.Context, tenantID, documentID string) (*core.RawDocument, error) {
	var result *core.RawDocument
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentKey(tenantID, documentID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			result, err = storage.UnmarshalRawDocument(val)
			return err
		})
	}, false)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: get document: %v", core.ErrDependencyUnavailable, err)
	}
	return result, nil
}

// PutDocument stores a raw document, replacing any previous version.
func (s *DocumentStore) PutDocument(ctx context.Context, doc *core.RawDocument) error {
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(doc.TenantID, doc.DocumentID)

		// Serialized timestamps carry microsecond precision, so anything
		// finer would not survive a round-trip.
		now := time.Now().UTC().Truncate(time.Microsecond)
		doc.UpdatedAt = now
		if doc.InsertedAt.IsZero() {
			doc.InsertedAt = now
		}

		if err := tx.Set(key, storage.MarshalRawDocument(doc)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("%w: put document: %v", core.ErrDependencyUnavailable, err)
	}
	return nil
}

// Close is a no-op; the backend owns the database handle.
func (s *DocumentStore) Close() error {
	return nil
}
