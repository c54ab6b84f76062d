package domain

import "context"

// Record is the flat field set of one store document: a JSON-shaped mapping
// of field name to null, bool, number, string, nested mapping or array.
type Record map[string]any

// Clone returns a copy of the record with its top-level and one nested
// mapping level copied. Deeper values are shared; the lifecycle codecs never
// mutate below that depth.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		if nested, ok := v.(map[string]any); ok {
			cp := make(map[string]any, len(nested))
			for nk, nv := range nested {
				cp[nk] = nv
			}
			out[k] = cp
			continue
		}
		out[k] = v
	}
	return out
}

// Document pairs a store document id with its field values. The id is not
// part of Fields; the envelope format merges it in as the "id" field.
type Document struct {
	ID     string
	Fields Record
}

// WriteOp describes one full-replace upsert within an atomic batch. When
// ParentCollection and ParentID are set the write addresses a document in a
// child collection under that parent.
type WriteOp struct {
	Collection       string
	ParentCollection string
	ParentID         string
	ID               string
	Fields           Record
}

// MaxBatchOps is the hard per-batch operation ceiling enforced by every
// store adapter. Importer chunking stays below it so a parent chunk plus its
// queued child writes still fits in one commit.
const MaxBatchOps = 500

// DocumentStore is the adapter contract to the remote document store. All
// operations are sequential; atomicity exists only within one CommitBatch.
type DocumentStore interface {
	// ReadAll returns every document in a top-level collection.
	ReadAll(ctx context.Context, collection string) ([]Document, error)
	// ReadChildren returns every document of the named child collection
	// under one parent document.
	ReadChildren(ctx context.Context, parentCollection, parentID, childCollection string) ([]Document, error)
	// CommitBatch applies up to MaxBatchOps full-replace upserts atomically.
	CommitBatch(ctx context.Context, ops []WriteOp) error
	// DeleteDocument removes a single top-level document.
	DeleteDocument(ctx context.Context, collection, id string) error
}
