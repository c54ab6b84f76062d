// Package sqlite provides an embedded DocumentStore backed by a single
// SQLite file, for single-register deployments that run without a remote
// store. Documents are stored as JSON payloads keyed by their full path.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"tillcore/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.DocumentStore = (*Store)(nil)

const schemaDDL = `CREATE TABLE IF NOT EXISTS documents (
	collection        TEXT NOT NULL,
	parent_collection TEXT NOT NULL DEFAULT '',
	parent_id         TEXT NOT NULL DEFAULT '',
	id                TEXT NOT NULL,
	payload           BLOB NOT NULL,
	PRIMARY KEY (collection, parent_collection, parent_id, id)
)`

// Store persists documents to a SQLite file. Each batch maps to one SQL
// transaction, which gives the same all-or-nothing guarantee the remote
// store's write batches do.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the SQLite document store at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "tillcore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// ReadAll returns every document of a top-level collection, sorted by id.
func (s *Store) ReadAll(ctx context.Context, collection string) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, payload FROM documents
		 WHERE collection=? AND parent_collection='' ORDER BY id`, collection)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", collection, err)
	}
	return scanDocuments(rows, collection)
}

// ReadChildren returns every document of a child collection under a parent,
// sorted by id.
func (s *Store) ReadChildren(ctx context.Context, parentCollection, parentID, childCollection string) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, payload FROM documents
		 WHERE collection=? AND parent_collection=? AND parent_id=? ORDER BY id`,
		childCollection, parentCollection, parentID)
	if err != nil {
		return nil, fmt.Errorf("select %s/%s/%s: %w", parentCollection, parentID, childCollection, err)
	}
	return scanDocuments(rows, childCollection)
}

func scanDocuments(rows *sql.Rows, collection string) ([]domain.Document, error) {
	defer func() { _ = rows.Close() }()
	var docs []domain.Document
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		var fields domain.Record
		if err := json.Unmarshal(payload, &fields); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
		docs = append(docs, domain.Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", collection, err)
	}
	return docs, nil
}

// CommitBatch applies all operations inside one SQL transaction.
func (s *Store) CommitBatch(ctx context.Context, ops []domain.WriteOp) (retErr error) {
	if len(ops) == 0 {
		return nil
	}
	if len(ops) > domain.MaxBatchOps {
		return fmt.Errorf("batch of %d exceeds limit %d", len(ops), domain.MaxBatchOps)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, op := range ops {
		payload, err := json.Marshal(op.Fields)
		if err != nil {
			retErr = fmt.Errorf("encode %s/%s: %w", op.Collection, op.ID, err)
			return retErr
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents(collection,parent_collection,parent_id,id,payload)
			 VALUES(?,?,?,?,?)
			 ON CONFLICT(collection,parent_collection,parent_id,id)
			 DO UPDATE SET payload=excluded.payload`,
			op.Collection, op.ParentCollection, op.ParentID, op.ID, payload); err != nil {
			retErr = fmt.Errorf("upsert %s/%s: %w", op.Collection, op.ID, err)
			return retErr
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DeleteDocument removes a single top-level document.
func (s *Store) DeleteDocument(ctx context.Context, collection, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection=? AND parent_collection='' AND id=?`,
		collection, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
