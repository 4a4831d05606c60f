// Package storage defines the key-value blob contract used to persist the
// active order and the draft list, with in-process adapters.
//
// Network-backed adapters live in the postgres, redis and sqlite
// subpackages.
package storage

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned by Get when no blob is stored under the key.
var ErrNotFound = errors.New("blob not found")

// BlobStore persists opaque blobs by key. Put replaces any previous value.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}
