// Package sqlite implements storage.BlobStore on an embedded SQLite
// database, for terminals that run without a network store.
package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"

	_ "modernc.org/sqlite"

	"github.com/xenking/oolio-pos/internal/storage"
)

var _ storage.BlobStore = (*BlobStore)(nil)

// BlobStore keeps blobs in the order_blobs table.
type BlobStore struct {
	db *sql.DB
}

// Open opens the database file at path and prepares the schema.
func Open(ctx context.Context, path string) (*BlobStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create database dir")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// One writer; SQLite serializes anyway.
	db.SetMaxOpenConns(1)

	s, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle.
func New(ctx context.Context, db *sql.DB) (*BlobStore, error) {
	s := &BlobStore{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *BlobStore) migrate(ctx context.Context) error {
	const query = `
	CREATE TABLE IF NOT EXISTS order_blobs (
		key        TEXT PRIMARY KEY,
		data       BLOB NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return errors.Wrap(err, "migrate")
	}
	return nil
}

// Close releases the database handle.
func (s *BlobStore) Close() error {
	return s.db.Close()
}

func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM order_blobs WHERE key = ?`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get blob %q", key)
	}
	return data, nil
}

func (s *BlobStore) Put(ctx context.Context, key string, data []byte) error {
	const query = `
	INSERT INTO order_blobs (key, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query, key, data); err != nil {
		return errors.Wrapf(err, "put blob %q", key)
	}
	return nil
}
