package memory

import (
	"context"
	"testing"

	"tillcore/pkg/domain"
)

func TestCommitBatchAndReadBack(t *testing.T) {
	st := NewStore()
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

	kids, err := st.ReadChildren(ctx, "shifts", "s1", "payouts")
	if err != nil {
		t.Fatalf("read children: %v", err)
	}
	if len(kids) != 1 || kids[0].ID != "p1" {
		t.Fatalf("child not stored: %v", kids)
	}
	// Child documents never leak into a same-named top-level collection.
	if top, _ := st.ReadAll(ctx, "payouts"); len(top) != 0 {
		t.Fatalf("child written to top level: %v", top)
	}
}

func TestCommitBatchValidatesBeforeMutating(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	bad := []domain.WriteOp{
		{Collection: "receipts", ID: "r1", Fields: domain.Record{}},
		{Collection: "receipts", ID: "", Fields: domain.Record{}},
	}
	if err := st.CommitBatch(ctx, bad); err == nil {
		t.Fatalf("expected validation error")
	}
	if docs, _ := st.ReadAll(ctx, "receipts"); len(docs) != 0 {
		t.Fatalf("partial batch applied: %v", docs)
	}

	half := []domain.WriteOp{
		{Collection: "payouts", ParentCollection: "shifts", ID: "p1", Fields: domain.Record{}},
	}
	if err := st.CommitBatch(ctx, half); err == nil {
		t.Fatalf("child op without parent id should fail")
	}
}

func TestCommitBatchEnforcesCeiling(t *testing.T) {
	st := NewStore()
	ops := make([]domain.WriteOp, domain.MaxBatchOps+1)
	for i := range ops {
		ops[i] = domain.WriteOp{Collection: "receipts", ID: "r", Fields: domain.Record{}}
	}
	if err := st.CommitBatch(context.Background(), ops); err == nil {
		t.Fatalf("oversized batch accepted")
	}
	if err := st.CommitBatch(context.Background(), ops[:domain.MaxBatchOps]); err != nil {
		t.Fatalf("batch at the ceiling rejected: %v", err)
	}
}

func TestCommitBatchClonesFields(t *testing.T) {
	st := NewStore()
	fields := domain.Record{"total": 1.0}
	if err := st.CommitBatch(context.Background(), []domain.WriteOp{
		{Collection: "receipts", ID: "r1", Fields: fields},
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	fields["total"] = 99.0

	docs, _ := st.ReadAll(context.Background(), "receipts")
	if docs[0].Fields["total"] != 1.0 {
		t.Fatalf("store aliased caller memory: %v", docs[0].Fields)
	}
	// Mutating a read result must not reach the store either.
	docs[0].Fields["total"] = 5.0
	again, _ := st.ReadAll(context.Background(), "receipts")
	if again[0].Fields["total"] != 1.0 {
		t.Fatalf("read result aliased store memory: %v", again[0].Fields)
	}
}

func TestDeleteDocument(t *testing.T) {
	st := NewStore()
	ctx := context.Background()
	if err := st.CommitBatch(ctx, []domain.WriteOp{
		{Collection: "receipts", ID: "r1", Fields: domain.Record{}},
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := st.DeleteDocument(ctx, "receipts", "r1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// Deleting again is a no-op, not an error.
	if err := st.DeleteDocument(ctx, "receipts", "r1"); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	if err := st.DeleteDocument(ctx, "", "r1"); err == nil {
		t.Fatalf("blank collection accepted")
	}
	if counts := st.Counts(); counts["receipts"] != 0 {
		t.Fatalf("document survived delete: %v", counts)
	}
}
