// Package postgres provides a Postgres-backed DocumentStore mirroring the
// sqlite layout on a JSONB column, for deployments that consolidate several
// registers onto one server.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"tillcore/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.DocumentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/tillcore?sslmode=disable"
)

const schemaDDL = `CREATE TABLE IF NOT EXISTS documents (
	collection        TEXT NOT NULL,
	parent_collection TEXT NOT NULL DEFAULT '',
	parent_id         TEXT NOT NULL DEFAULT '',
	id                TEXT NOT NULL,
	payload           JSONB NOT NULL,
	PRIMARY KEY (collection, parent_collection, parent_id, id)
)`

// Store persists documents to Postgres; each batch is one transaction.
type Store struct {
	db *sql.DB
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN) and ensures the documents table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sql.Open(defaultDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	return &Store{db: db}, nil
}

// ReadAll returns every document of a top-level collection, sorted by id.
func (s *Store) ReadAll(ctx context.Context, collection string) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, payload FROM documents
		 WHERE collection=$1 AND parent_collection='' ORDER BY id`, collection)
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
		 WHERE collection=$1 AND parent_collection=$2 AND parent_id=$3 ORDER BY id`,
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

// CommitBatch applies all operations inside one transaction.
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
			 VALUES($1,$2,$3,$4,$5)
			 ON CONFLICT(collection,parent_collection,parent_id,id)
			 DO UPDATE SET payload=EXCLUDED.payload`,
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
		`DELETE FROM documents WHERE collection=$1 AND parent_collection='' AND id=$2`,
		collection, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }
