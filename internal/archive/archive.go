// Package archive stores snapshot artifacts (routine exports and the
// emergency backups a reset takes) outside the document store. Semantics
// are a minimal create-only subset of an object store so the S3 driver maps
// 1:1 and the filesystem driver can emulate it.
package archive

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete archive backend implementation.
type Driver string

const (
	DriverFilesystem Driver = "fs"     // local directory (default, dev)
	DriverS3         Driver = "s3"     // S3 / MinIO compatible
	DriverMemory     Driver = "memory" // in-memory (tests)
)

// Info describes one stored artifact.
type Info struct {
	Key       string    `json:"key"`
	Size      int64     `json:"size_bytes"`
	ETag      string    `json:"etag,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the archive backend contract. Writes are create-only: a snapshot
// artifact, once written, is never silently replaced.
type Store interface {
	// Put stores a new artifact at key. MUST fail if the key already exists.
	Put(ctx context.Context, key string, r io.Reader) (Info, error)
	// Get retrieves artifact contents and metadata.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// Head returns metadata only.
	Head(ctx context.Context, key string) (Info, error)
	// List returns artifacts whose key has the prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	// Delete removes an artifact. Returns (false, nil) when absent.
	Delete(ctx context.Context, key string) (bool, error)
	// Driver reports the configured backend.
	Driver() Driver
}

// ErrExists is returned by Put when the key is already occupied.
var ErrExists = errors.New("archive: key already exists")
