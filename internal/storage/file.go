package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
)

var _ BlobStore = (*Dir)(nil)

// Dir stores each blob as <dir>/<key>.json. Writes go to a temporary file
// that is renamed into place, so readers never see a partial blob.
type Dir struct {
	path string
}

// NewDir returns a Dir rooted at path, creating it if needed.
func NewDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	return &Dir{path: path}, nil
}

func (s *Dir) file(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", errors.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.path, key+".json"), nil
}

func (s *Dir) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := s.file(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "read %s", key)
	}
	return b, nil
}

func (s *Dir) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := s.file(key)
	if err != nil {
		return err
	}
	tmp := name + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", key)
	}
	if err := os.Rename(tmp, name); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "rename %s", key)
	}
	return nil
}
