package lifecycle

import (
	"context"
	"fmt"

	"tillcore/pkg/domain"
)

// ProgressFunc receives human-readable status lines during long operations.
// A nil ProgressFunc is valid and silently drops progress.
type ProgressFunc func(message string)

func (f ProgressFunc) report(format string, args ...any) {
	if f != nil {
		f(fmt.Sprintf(format, args...))
	}
}

// ImportSummary describes what one Apply call did. Skipped lists records
// that were dropped because they carried no id; dropping them is non-fatal
// but no longer invisible.
type ImportSummary struct {
	Collections int
	Records     int
	Batches     int
	Skipped     []string
}

// Importer restores a store from snapshot text via chunked atomic batches.
type Importer struct {
	store  domain.DocumentStore
	schema domain.Schema
}

// NewImporter constructs an importer over the given store and schema.
func NewImporter(store domain.DocumentStore, schema domain.Schema) *Importer {
	return &Importer{store: store, schema: schema}
}

// Apply validates and applies snapshot text. Validation failures (malformed
// text, unsupported version, missing data) are FormatErrors raised before
// any write reaches the store. After the first committed batch there is no
// rollback: a later WriteError leaves the store partially imported and
// propagates to the caller.
func (im *Importer) Apply(ctx context.Context, raw []byte, onProgress ProgressFunc) (ImportSummary, error) {
	var summary ImportSummary
	env, err := ParseEnvelope(raw)
	if err != nil {
		return summary, err
	}
	if env.Version != FormatVersion {
		return summary, &FormatError{Reason: fmt.Sprintf("unsupported version %q (want %q)", env.Version, FormatVersion)}
	}

	for _, col := range env.Data {
		if !col.Valid {
			continue
		}
		if len(col.Records) == 0 {
			onProgress.report("%s: nothing to import", col.Name)
			continue
		}
		if err := im.applyCollection(ctx, col, &summary, onProgress); err != nil {
			return summary, err
		}
		summary.Collections++
	}
	return summary, nil
}

func (im *Importer) applyCollection(ctx context.Context, col EnvelopeCollection, summary *ImportSummary, onProgress ProgressFunc) error {
	child, hasChildren := im.schema.HasChildren(col.Name)
	total := len(col.Records)
	written := 0
	ops := make([]domain.WriteOp, 0, im.schema.ChunkSize)
	pendingParents := 0

	flush := func() error {
		if len(ops) == 0 {
			return nil
		}
		if err := im.store.CommitBatch(ctx, ops); err != nil {
			return &WriteError{Collection: col.Name, Err: err}
		}
		summary.Batches++
		summary.Records += pendingParents
		written += pendingParents
		onProgress.report("%s: restored %d/%d records", col.Name, written, total)
		ops = make([]domain.WriteOp, 0, im.schema.ChunkSize)
		pendingParents = 0
		return nil
	}
	// Child writes ride in the parent's batch, so the op ceiling can bind
	// before the parent chunk fills. push flushes on whichever comes first.
	push := func(op domain.WriteOp) error {
		if len(ops) == domain.MaxBatchOps {
			if err := flush(); err != nil {
				return err
			}
		}
		ops = append(ops, op)
		return nil
	}

	for i, rec := range col.Records {
		id, ok := recordID(rec)
		if !ok {
			summary.Skipped = append(summary.Skipped, fmt.Sprintf("%s[%d]", col.Name, i))
			continue
		}
		if pendingParents == im.schema.ChunkSize {
			if err := flush(); err != nil {
				return err
			}
		}
		fields := rec.Clone()
		delete(fields, "id")
		var children []domain.Record
		if hasChildren {
			children = childRecords(fields[child.ReservedKey])
			// Never write the reserved carrier key as a literal field.
			delete(fields, child.ReservedKey)
		}
		if err := push(domain.WriteOp{
			Collection: col.Name,
			ID:         id,
			Fields:     DenormalizeTimestamps(fields),
		}); err != nil {
			return err
		}
		pendingParents++
		for j, kid := range children {
			kidID, ok := recordID(kid)
			if !ok {
				summary.Skipped = append(summary.Skipped, fmt.Sprintf("%s[%d]/%s[%d]", col.Name, i, child.Collection, j))
				continue
			}
			kidFields := kid.Clone()
			delete(kidFields, "id")
			if err := push(domain.WriteOp{
				Collection:       child.Collection,
				ParentCollection: col.Name,
				ParentID:         id,
				ID:               kidID,
				Fields:           DenormalizeTimestamps(kidFields),
			}); err != nil {
				return err
			}
		}
	}
	return flush()
}

// recordID extracts the mandatory id field. Records without a non-empty
// string id cannot be addressed and are skipped.
func recordID(rec domain.Record) (string, bool) {
	id, ok := rec["id"].(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// childRecords coerces a reserved-key value into child records. Values of
// any other shape are ignored.
func childRecords(v any) []domain.Record {
	switch arr := v.(type) {
	case []domain.Record:
		return arr
	case []any:
		out := make([]domain.Record, 0, len(arr))
		for _, item := range arr {
			if m, ok := item.(map[string]any); ok {
				out = append(out, domain.Record(m))
			}
		}
		return out
	default:
		return nil
	}
}
