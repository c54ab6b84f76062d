package lifecycle

import (
	"context"
	"time"

	"tillcore/pkg/domain"
)

// Exporter assembles a snapshot envelope from the full store contents. It is
// strictly read-only; a failed export leaves no trace anywhere.
type Exporter struct {
	store  domain.DocumentStore
	schema domain.Schema
	nowFn  func() time.Time
}

// NewExporter constructs an exporter over the given store and schema.
func NewExporter(store domain.DocumentStore, schema domain.Schema) *Exporter {
	return &Exporter{
		store:  store,
		schema: schema,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// Generate reads every configured collection in order and returns the
// assembled envelope. Temporal fields are normalized to canonical strings;
// parent collections configured with children get their child records
// attached under the reserved key when at least one child exists. Any read
// failure aborts with a FetchError and no partial envelope.
func (e *Exporter) Generate(ctx context.Context) (*Envelope, error) {
	env := &Envelope{
		ExportDate: EncodeTimestamp(e.nowFn()),
		Version:    FormatVersion,
	}
	for _, name := range e.schema.Collections {
		docs, err := e.store.ReadAll(ctx, name)
		if err != nil {
			return nil, &FetchError{Collection: name, Err: err}
		}
		child, hasChildren := e.schema.HasChildren(name)
		records := make([]domain.Record, 0, len(docs))
		for _, doc := range docs {
			rec := NormalizeTimestamps(doc.Fields)
			if rec == nil {
				rec = domain.Record{}
			}
			if hasChildren {
				// A genuine field under the reserved key would collide with
				// the child payload on restore; the schema forbids it.
				delete(rec, child.ReservedKey)
				kids, err := e.store.ReadChildren(ctx, name, doc.ID, child.Collection)
				if err != nil {
					return nil, &FetchError{Collection: name + "/" + child.Collection, Err: err}
				}
				if len(kids) > 0 {
					childRecords := make([]domain.Record, 0, len(kids))
					for _, kid := range kids {
						kr := NormalizeTimestamps(kid.Fields)
						if kr == nil {
							kr = domain.Record{}
						}
						kr["id"] = kid.ID
						childRecords = append(childRecords, kr)
					}
					rec[child.ReservedKey] = childRecords
				}
			}
			rec["id"] = doc.ID
			records = append(records, rec)
		}
		env.Data = append(env.Data, EnvelopeCollection{Name: name, Records: records, Valid: true})
	}
	return env, nil
}
