package storage

import (
	"bytes"
	"context"
	"io"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
)

var _ BlobStore = (*Gzip)(nil)

// gzipMagic is the two-byte gzip member header.
var gzipMagic = []byte{0x1f, 0x8b}

// Gzip compresses blobs before handing them to the wrapped store.
//
// Blobs that were written before compression was enabled are returned as
// stored.
type Gzip struct {
	next  BlobStore
	level int
}

// NewGzip wraps next. A level of 0 selects pgzip.DefaultCompression.
func NewGzip(next BlobStore, level int) *Gzip {
	if level == 0 {
		level = pgzip.DefaultCompression
	}
	return &Gzip{next: next, level: level}
}

func (g *Gzip) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := g.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(b, gzipMagic) {
		return b, nil
	}

	r, err := pgzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrapf(err, "open gzip %s", key)
	}
	defer func() { _ = r.Close() }()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "decompress %s", key)
	}
	return out, nil
}

func (g *Gzip) Put(ctx context.Context, key string, data []byte) error {
	var buf bytes.Buffer
	w, err := pgzip.NewWriterLevel(&buf, g.level)
	if err != nil {
		return errors.Wrap(err, "create gzip writer")
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrapf(err, "compress %s", key)
	}
	if err := w.Close(); err != nil {
		return errors.Wrapf(err, "compress %s", key)
	}
	return g.next.Put(ctx, key, buf.Bytes())
}
