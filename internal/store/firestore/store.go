// Package firestore adapts Cloud Firestore to the DocumentStore contract.
// This is the production backend the point-of-sale clients share; the
// lifecycle's batch ceiling exists because of Firestore's per-commit
// operation limit.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"tillcore/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.DocumentStore = (*Store)(nil)

// Store wraps a Firestore client. All methods are sequential; Firestore's
// own last-write-wins semantics resolve races with concurrent clients at
// document granularity.
type Store struct {
	client *firestore.Client
}

// New connects to the given project (and optional named database).
func New(ctx context.Context, projectID, databaseID string, opts ...option.ClientOption) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firestore project id required")
	}
	var client *firestore.Client
	var err error
	if databaseID == "" {
		client, err = firestore.NewClient(ctx, projectID, opts...)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("connect firestore: %w", err)
	}
	return &Store{client: client}, nil
}

// NewFromClient wraps an existing client (tests, emulator setups).
func NewFromClient(client *firestore.Client) *Store {
	return &Store{client: client}
}

// ReadAll returns every document of a top-level collection.
func (s *Store) ReadAll(ctx context.Context, collection string) ([]domain.Document, error) {
	return drain(s.client.Collection(collection).Documents(ctx), collection)
}

// ReadChildren returns every document of a child collection under a parent.
func (s *Store) ReadChildren(ctx context.Context, parentCollection, parentID, childCollection string) ([]domain.Document, error) {
	iter := s.client.Collection(parentCollection).Doc(parentID).Collection(childCollection).Documents(ctx)
	return drain(iter, parentCollection+"/"+parentID+"/"+childCollection)
}

func drain(iter *firestore.DocumentIterator, path string) ([]domain.Document, error) {
	defer iter.Stop()
	var docs []domain.Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate %s: %w", path, err)
		}
		docs = append(docs, domain.Document{ID: snap.Ref.ID, Fields: domain.Record(snap.Data())})
	}
	return docs, nil
}

// CommitBatch applies all operations in one atomic Firestore write batch.
// Set without merge options is a full document replace.
func (s *Store) CommitBatch(ctx context.Context, ops []domain.WriteOp) error {
	if len(ops) == 0 {
		return nil
	}
	if len(ops) > domain.MaxBatchOps {
		return fmt.Errorf("batch of %d exceeds limit %d", len(ops), domain.MaxBatchOps)
	}
	batch := s.client.Batch()
	for _, op := range ops {
		batch.Set(s.docRef(op), map[string]any(op.Fields))
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func (s *Store) docRef(op domain.WriteOp) *firestore.DocumentRef {
	if op.ParentCollection != "" {
		return s.client.Collection(op.ParentCollection).Doc(op.ParentID).Collection(op.Collection).Doc(op.ID)
	}
	return s.client.Collection(op.Collection).Doc(op.ID)
}

// DeleteDocument removes a single top-level document. Child collections
// under it are untouched, per Firestore semantics.
func (s *Store) DeleteDocument(ctx context.Context, collection, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error { return s.client.Close() }
