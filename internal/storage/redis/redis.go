// Package redis implements storage.BlobStore on Redis, for terminals that
// share order state through a store-local cache.
package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/oolio-pos/internal/storage"
)

var _ storage.BlobStore = (*BlobStore)(nil)

// Connect creates a client for addr and verifies it with a ping.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return client, nil
}

// BlobStore keeps each blob in a plain string key, optionally namespaced by
// a prefix so several terminals can share one instance.
type BlobStore struct {
	client redis.UniversalClient
	prefix string
}

// NewBlobStore returns a BlobStore using client. A non-empty prefix is joined
// to every key with a colon.
func NewBlobStore(client redis.UniversalClient, prefix string) *BlobStore {
	return &BlobStore{client: client, prefix: prefix}
}

func (s *BlobStore) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get %q", key)
	}
	return b, nil
}

func (s *BlobStore) Put(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.key(key), data, 0).Err(); err != nil {
		return errors.Wrapf(err, "set %q", key)
	}
	return nil
}
