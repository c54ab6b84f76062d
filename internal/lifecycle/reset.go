package lifecycle

import (
	"context"
	"fmt"
	"time"

	"tillcore/internal/archive"
	"tillcore/pkg/domain"
)

// Resetter performs the destructive full reset. The safety contract: a
// complete backup envelope must be durable in the archive strictly before
// the first delete is issued. The caller is responsible for operator
// confirmation; no further check happens here.
type Resetter struct {
	store    domain.DocumentStore
	archive  archive.Store
	exporter *Exporter
	schema   domain.Schema
	nowFn    func() time.Time
}

// NewResetter constructs a resetter over the given store, archive and schema.
func NewResetter(store domain.DocumentStore, archiveStore archive.Store, schema domain.Schema) *Resetter {
	return &Resetter{
		store:    store,
		archive:  archiveStore,
		exporter: NewExporter(store, schema),
		schema:   schema,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}

// Run backs up the whole store, then clears every destructible collection
// in schema order, deleting documents one at a time to bound store load and
// keep progress fine-grained. Any failure before the backup is durable
// means zero deletions. A failure mid-deletion stops remaining work and
// leaves already-cleared collections cleared.
func (r *Resetter) Run(ctx context.Context, onProgress ProgressFunc) error {
	onProgress.report("generating emergency backup")
	env, err := r.exporter.Generate(ctx)
	if err != nil {
		return fmt.Errorf("emergency backup: %w", err)
	}
	raw, err := env.Encode()
	if err != nil {
		return fmt.Errorf("emergency backup: encode: %w", err)
	}
	key := EmergencyBackupKey(r.schema.FilePrefix, r.nowFn())
	info, err := PutUnique(ctx, r.archive, key, raw)
	if err != nil {
		return fmt.Errorf("emergency backup: archive: %w", err)
	}
	onProgress.report("emergency backup saved as %s (%d bytes)", info.Key, info.Size)

	for _, name := range r.schema.Destructible {
		docs, err := r.store.ReadAll(ctx, name)
		if err != nil {
			return &FetchError{Collection: name, Err: err}
		}
		for _, doc := range docs {
			if err := r.store.DeleteDocument(ctx, name, doc.ID); err != nil {
				return &WriteError{Collection: name, Err: err}
			}
		}
		onProgress.report("cleared %s (%d documents)", name, len(docs))
	}
	return nil
}
