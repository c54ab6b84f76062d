package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tillcore/internal/archive"
	"tillcore/pkg/domain"
)

// Service is the lifecycle surface consumed by the CLI and any UI: export
// with archival, restore from snapshot text, and the backup-gated reset.
type Service struct {
	store    domain.DocumentStore
	archive  archive.Store
	schema   domain.Schema
	exporter *Exporter
	importer *Importer
	resetter *Resetter
	metrics  MetricsRecorder
	tracer   Tracer
	nowFn    func() time.Time
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithMetricsRecorder injects a metrics sink. Callers create one per run
// and discard it afterwards.
func WithMetricsRecorder(rec MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithTracer injects a tracer.
func WithTracer(tr Tracer) ServiceOption {
	return func(s *Service) {
		if tr != nil {
			s.tracer = tr
		}
	}
}

// WithClock overrides the service clock (archive key dates, export dates).
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.nowFn = now
			s.exporter.nowFn = now
			s.resetter.nowFn = now
		}
	}
}

// NewService wires exporter, importer and resetter over one store, archive
// and schema. The schema must validate; a misconfigured collection table is
// a programming error, not a runtime condition.
func NewService(store domain.DocumentStore, archiveStore archive.Store, schema domain.Schema, opts ...ServiceOption) (*Service, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		store:    store,
		archive:  archiveStore,
		schema:   schema,
		exporter: NewExporter(store, schema),
		importer: NewImporter(store, schema),
		resetter: NewResetter(store, archiveStore, schema),
		metrics:  noopMetrics{},
		tracer:   noopTracer{},
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Schema returns the active lifecycle schema.
func (s *Service) Schema() domain.Schema { return s.schema }

// Export generates a full snapshot and archives it under the routine export
// key for today. The envelope is returned alongside the archive record.
func (s *Service) Export(ctx context.Context) (env *Envelope, info archive.Info, err error) {
	done := s.observe(ctx, "export", s.nowFn())
	defer func() { done(err) }()
	env, err = s.exporter.Generate(ctx)
	if err != nil {
		return nil, archive.Info{}, err
	}
	raw, err := env.Encode()
	if err != nil {
		return nil, archive.Info{}, fmt.Errorf("encode envelope: %w", err)
	}
	info, err = PutUnique(ctx, s.archive, ExportKey(s.schema.FilePrefix, s.nowFn()), raw)
	if err != nil {
		return nil, archive.Info{}, fmt.Errorf("archive export: %w", err)
	}
	return env, info, nil
}

// Import restores the store from snapshot text, reporting progress lines.
func (s *Service) Import(ctx context.Context, raw []byte, onProgress ProgressFunc) (summary ImportSummary, err error) {
	done := s.observe(ctx, "import", s.nowFn())
	defer func() { done(err) }()
	summary, err = s.importer.Apply(ctx, raw, onProgress)
	return summary, err
}

// Reset runs the backup-gated destructive reset, reporting through the
// callback triplet the UI expects. onComplete fires only after every
// destructible collection is cleared; onError fires on the first failure
// with deletions stopped where they were.
func (s *Service) Reset(ctx context.Context, onProgress ProgressFunc, onComplete func(), onError func(error)) {
	var err error
	done := s.observe(ctx, "reset", s.nowFn())
	defer func() { done(err) }()
	err = s.resetter.Run(ctx, onProgress)
	if err != nil {
		if onError != nil {
			onError(err)
		}
		return
	}
	if onComplete != nil {
		onComplete()
	}
}

// observe returns a completion func recording metrics and a trace span for
// one operation.
func (s *Service) observe(ctx context.Context, operation string, started time.Time) func(error) {
	ctx, span := s.tracer.Start(ctx, operation)
	return func(err error) {
		span.End(err)
		s.metrics.Observe(ctx, operation, err == nil, s.nowFn().Sub(started))
	}
}

// PutUnique writes raw to the archive under key, appending a short unique
// suffix when the key is already taken (a second export or reset on the
// same day must not clobber the first artifact).
func PutUnique(ctx context.Context, store archive.Store, key string, raw []byte) (archive.Info, error) {
	info, err := store.Put(ctx, key, bytes.NewReader(raw))
	if err == nil {
		return info, nil
	}
	if !errors.Is(err, archive.ErrExists) {
		return archive.Info{}, err
	}
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	alt := uniqueKey(key, suffix)
	return store.Put(ctx, alt, bytes.NewReader(raw))
}

func uniqueKey(key, suffix string) string {
	if idx := strings.LastIndex(key, "."); idx > 0 {
		return key[:idx] + "_" + suffix + key[idx:]
	}
	return key + "_" + suffix
}
