package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DiskStorage keeps objects as flat files under a root directory.
type DiskStorage struct {
	root string
}

// NewDiskStorage constructs a DiskStorage rooted at dir. Relative paths are
// resolved against the working directory.
func NewDiskStorage(dir string) (*DiskStorage, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("uploads directory is required")
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &DiskStorage{root: root}, nil
}

// EnsureBucket creates the root directory when missing.
func (d *DiskStorage) EnsureBucket(ctx context.Context) error {
	return os.MkdirAll(d.root, 0o755)
}

// Put writes the object through a temp file and renames it into place, so
// concurrent writers of the same key never expose a partial file.
func (d *DiskStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	dst, err := d.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.root, ".upload-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, dst)
}

// Get opens the object for reading.
func (d *DiskStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := d.path(key)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// Delete removes the object. Removing a missing object is an error.
func (d *DiskStorage) Delete(ctx context.Context, key string) error {
	p, err := d.path(key)
	if err != nil {
		return err
	}
	return os.Remove(p)
}

// Location returns the absolute file path of key.
func (d *DiskStorage) Location(key string) string {
	return filepath.Join(d.root, key)
}

// Bucket returns the root directory.
func (d *DiskStorage) Bucket() string {
	return d.root
}

func (d *DiskStorage) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(d.root, key), nil
}
