// Package memory provides an in-memory DocumentStore for tests and
// ephemeral runs. Reads return documents sorted by id so exports are
// deterministic.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tillcore/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.DocumentStore = (*Store)(nil)

// Store keeps top-level collections and child collections in nested maps
// guarded by one RWMutex. Batches are all-or-nothing: validation happens
// before any map mutation.
type Store struct {
	mu sync.RWMutex
	// collection -> id -> fields
	collections map[string]map[string]domain.Record
	// parentCollection -> parentID -> childCollection -> id -> fields
	children map[string]map[string]map[string]map[string]domain.Record
}

// NewStore returns an empty in-memory document store.
func NewStore() *Store {
	return &Store{
		collections: make(map[string]map[string]domain.Record),
		children:    make(map[string]map[string]map[string]map[string]domain.Record),
	}
}

// ReadAll returns every document of a top-level collection, sorted by id.
func (s *Store) ReadAll(ctx context.Context, collection string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.collections[collection]))
	for id, fields := range s.collections[collection] {
		docs = append(docs, domain.Document{ID: id, Fields: fields.Clone()})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// ReadChildren returns every document of a child collection under one
// parent, sorted by id.
func (s *Store) ReadChildren(ctx context.Context, parentCollection, parentID, childCollection string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byChild := s.children[parentCollection][parentID]
	docs := make([]domain.Document, 0, len(byChild[childCollection]))
	for id, fields := range byChild[childCollection] {
		docs = append(docs, domain.Document{ID: id, Fields: fields.Clone()})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// CommitBatch applies all operations or none of them.
func (s *Store) CommitBatch(ctx context.Context, ops []domain.WriteOp) error {
	if len(ops) == 0 {
		return nil
	}
	if len(ops) > domain.MaxBatchOps {
		return fmt.Errorf("batch of %d exceeds limit %d", len(ops), domain.MaxBatchOps)
	}
	for _, op := range ops {
		if op.Collection == "" || op.ID == "" {
			return fmt.Errorf("write op missing collection or id")
		}
		if (op.ParentCollection == "") != (op.ParentID == "") {
			return fmt.Errorf("child write op for %s/%s missing parent address", op.Collection, op.ID)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range ops {
		if op.ParentCollection != "" {
			s.putChildLocked(op)
			continue
		}
		bucket := s.collections[op.Collection]
		if bucket == nil {
			bucket = make(map[string]domain.Record)
			s.collections[op.Collection] = bucket
		}
		bucket[op.ID] = op.Fields.Clone()
	}
	return nil
}

func (s *Store) putChildLocked(op domain.WriteOp) {
	byParent := s.children[op.ParentCollection]
	if byParent == nil {
		byParent = make(map[string]map[string]map[string]domain.Record)
		s.children[op.ParentCollection] = byParent
	}
	byChild := byParent[op.ParentID]
	if byChild == nil {
		byChild = make(map[string]map[string]domain.Record)
		byParent[op.ParentID] = byChild
	}
	bucket := byChild[op.Collection]
	if bucket == nil {
		bucket = make(map[string]domain.Record)
		byChild[op.Collection] = bucket
	}
	bucket[op.ID] = op.Fields.Clone()
}

// DeleteDocument removes a top-level document. Deleting a missing document
// is not an error, matching remote document store semantics. Child
// documents under the id are left in place; the lifecycle clears child
// collections only through their parents' configured flows.
func (s *Store) DeleteDocument(ctx context.Context, collection, id string) error {
	if collection == "" || id == "" {
		return fmt.Errorf("delete missing collection or id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], id)
	return nil
}

// Counts returns the number of documents per top-level collection, a test
// convenience.
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.collections))
	for name, bucket := range s.collections {
		out[name] = len(bucket)
	}
	return out
}
