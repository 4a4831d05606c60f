package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/oolio-pos/internal/storage"
)

const (
	getBlobSQL = `SELECT data FROM order_blobs WHERE key = $1`

	putBlobSQL = `INSERT INTO order_blobs (key, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
)

var _ storage.BlobStore = (*BlobStore)(nil)

// BlobStore implements storage.BlobStore on the order_blobs table.
type BlobStore struct {
	pool *pgxpool.Pool
}

// NewBlobStore returns a BlobStore that uses the given pool.
func NewBlobStore(pool *pgxpool.Pool) *BlobStore {
	return &BlobStore{pool: pool}
}

func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	if err := s.pool.QueryRow(ctx, getBlobSQL, key).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get blob %q", key)
	}
	return data, nil
}

func (s *BlobStore) Put(ctx context.Context, key string, data []byte) error {
	if _, err := s.pool.Exec(ctx, putBlobSQL, key, data); err != nil {
		return errors.Wrapf(err, "put blob %q", key)
	}
	return nil
}
