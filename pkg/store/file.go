package store

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/ajitpratap0/brainless/pkg/errors"
)

// fileStore keeps objects on the local filesystem. Keys are paths.
type fileStore struct{}

func newFileStore(_ context.Context, _ Location, _ Options) (Store, error) {
	return fileStore{}, nil
}

// Put writes to a temporary file in the target directory and renames it, so
// readers never observe a partial snapshot.
func (fileStore) Put(ctx context.Context, key string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create directory").WithDetail("path", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(key)+".*")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create temporary file").WithDetail("path", key)
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write file").WithDetail("path", key)
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to sync file").WithDetail("path", key)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close file").WithDetail("path", key)
	}
	if err := os.Rename(tmp.Name(), key); err != nil {
		os.Remove(tmp.Name())
		committed = true
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to move file into place").WithDetail("path", key)
	}
	committed = true
	return nil
}

func (fileStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(key)
	if os.IsNotExist(err) {
		return nil, notFound(key, err)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open file").WithDetail("path", key)
	}
	return f, nil
}

func (fileStore) Close() error { return nil }
