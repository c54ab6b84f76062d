package lifecycle

import (
	"context"
	"fmt"
	"sort"

	"tillcore/pkg/domain"
)

// stubStore is a scriptable DocumentStore for exercising failure paths and
// recording the exact write/delete traffic the lifecycle produces.
type stubStore struct {
	collections map[string][]domain.Document
	children    map[string][]domain.Document // parentCol/parentID/childCol

	commits [][]domain.WriteOp
	deletes []string // collection/id, in call order

	readErr     map[string]error
	failCommit  int // fail the nth CommitBatch call (1-based), 0 = never
	deleteErrOn string
}

func newStubStore() *stubStore {
	return &stubStore{
		collections: map[string][]domain.Document{},
		children:    map[string][]domain.Document{},
		readErr:     map[string]error{},
	}
}

func childKey(parentCollection, parentID, childCollection string) string {
	return parentCollection + "/" + parentID + "/" + childCollection
}

func (s *stubStore) ReadAll(_ context.Context, collection string) ([]domain.Document, error) {
	if err := s.readErr[collection]; err != nil {
		return nil, err
	}
	docs := append([]domain.Document(nil), s.collections[collection]...)
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *stubStore) ReadChildren(_ context.Context, parentCollection, parentID, childCollection string) ([]domain.Document, error) {
	key := childKey(parentCollection, parentID, childCollection)
	if err := s.readErr[key]; err != nil {
		return nil, err
	}
	docs := append([]domain.Document(nil), s.children[key]...)
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *stubStore) CommitBatch(_ context.Context, ops []domain.WriteOp) error {
	if s.failCommit > 0 && len(s.commits)+1 == s.failCommit {
		return fmt.Errorf("injected commit failure")
	}
	s.commits = append(s.commits, append([]domain.WriteOp(nil), ops...))
	for _, op := range ops {
		if op.ParentCollection != "" {
			key := childKey(op.ParentCollection, op.ParentID, op.Collection)
			s.children[key] = upsertDoc(s.children[key], op.ID, op.Fields)
			continue
		}
		s.collections[op.Collection] = upsertDoc(s.collections[op.Collection], op.ID, op.Fields)
	}
	return nil
}

func upsertDoc(docs []domain.Document, id string, fields domain.Record) []domain.Document {
	for i := range docs {
		if docs[i].ID == id {
			docs[i].Fields = fields
			return docs
		}
	}
	return append(docs, domain.Document{ID: id, Fields: fields})
}

func (s *stubStore) DeleteDocument(_ context.Context, collection, id string) error {
	path := collection + "/" + id
	if s.deleteErrOn == path {
		return fmt.Errorf("injected delete failure")
	}
	docs := s.collections[collection]
	for i := range docs {
		if docs[i].ID == id {
			s.collections[collection] = append(docs[:i], docs[i+1:]...)
			break
		}
	}
	s.deletes = append(s.deletes, path)
	return nil
}

// totalWrites counts write ops across all committed batches.
func (s *stubStore) totalWrites() int {
	n := 0
	for _, batch := range s.commits {
		n += len(batch)
	}
	return n
}

// testSchema is a compact schema used by most lifecycle tests: one plain
// collection, one parent with children, one retained collection.
func testSchema() domain.Schema {
	return domain.Schema{
		Collections: []string{"receipts", "shifts", "tables"},
		Children: map[string]domain.ChildCollection{
			"shifts": {Collection: "payouts", ReservedKey: PayoutsReservedKey},
		},
		Destructible: []string{"receipts", "shifts"},
		ChunkSize:    400,
		FilePrefix:   "tillcore",
	}
}

// collectProgress returns a ProgressFunc appending to the given slice.
func collectProgress(lines *[]string) ProgressFunc {
	return func(message string) { *lines = append(*lines, message) }
}
