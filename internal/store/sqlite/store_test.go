package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"tillcore/pkg/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(filepath.Join(t.TempDir(), "till.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestCommitBatchPersistsAndUpserts(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	err := st.CommitBatch(ctx, []domain.WriteOp{
		{Collection: "receipts", ID: "r2", Fields: domain.Record{"total": 2.0}},
		{Collection: "receipts", ID: "r1", Fields: domain.Record{"total": 1.0}},
		{Collection: "payouts", ParentCollection: "shifts", ParentID: "s1", ID: "p1", Fields: domain.Record{"amount": 20.0}},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	docs, err := st.ReadAll(ctx, "receipts")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "r1" || docs[1].ID != "r2" {
		t.Fatalf("reads not id-sorted: %v", docs)
	}
	if docs[0].Fields["total"] != 1.0 {
		t.Fatalf("payload drifted: %v", docs[0].Fields)
	}

	// Upsert replaces the document fully.
	err = st.CommitBatch(ctx, []domain.WriteOp{
		{Collection: "receipts", ID: "r1", Fields: domain.Record{"voided": true}},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	docs, _ = st.ReadAll(ctx, "receipts")
	if _, ok := docs[0].Fields["total"]; ok || docs[0].Fields["voided"] != true {
		t.Fatalf("upsert did not replace: %v", docs[0].Fields)
	}

	kids, err := st.ReadChildren(ctx, "shifts", "s1", "payouts")
	if err != nil {
		t.Fatalf("read children: %v", err)
	}
	if len(kids) != 1 || kids[0].ID != "p1" {
		t.Fatalf("child not stored: %v", kids)
	}
	// Child documents never surface as a top-level collection.
	if top, _ := st.ReadAll(ctx, "payouts"); len(top) != 0 {
		t.Fatalf("child leaked to top level: %v", top)
	}
}

func TestCommitBatchRejectsOversize(t *testing.T) {
	st := openTestStore(t)
	ops := make([]domain.WriteOp, domain.MaxBatchOps+1)
	for i := range ops {
		ops[i] = domain.WriteOp{Collection: "receipts", ID: "r", Fields: domain.Record{}}
	}
	if err := st.CommitBatch(context.Background(), ops); err == nil {
		t.Fatalf("oversized batch accepted")
	}
	if docs, _ := st.ReadAll(context.Background(), "receipts"); len(docs) != 0 {
		t.Fatalf("rejected batch left writes behind: %v", docs)
	}
}

func TestDeleteDocumentScopedToTopLevel(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	err := st.CommitBatch(ctx, []domain.WriteOp{
		{Collection: "shifts", ID: "s1", Fields: domain.Record{"register": "front"}},
		{Collection: "payouts", ParentCollection: "shifts", ParentID: "s1", ID: "p1", Fields: domain.Record{"amount": 20.0}},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := st.DeleteDocument(ctx, "shifts", "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// Deleting again is a no-op.
	if err := st.DeleteDocument(ctx, "shifts", "s1"); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	if docs, _ := st.ReadAll(ctx, "shifts"); len(docs) != 0 {
		t.Fatalf("document survived delete: %v", docs)
	}
	// The child collection stays, mirroring remote store delete semantics.
	kids, _ := st.ReadChildren(ctx, "shifts", "s1", "payouts")
	if len(kids) != 1 {
		t.Fatalf("child removed with parent: %v", kids)
	}
}
