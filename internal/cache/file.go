package cache

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// File stores one file per key under a directory.
type File struct {
	dir string
}

// NewFile creates the directory if needed.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "file cache: create dir")
	}
	return &File{dir: dir}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+".bin")
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, eris.Wrapf(err, "file cache: read %s", key)
	}
	return data, nil
}

// Put writes through a temp file and rename so readers never see a partial
// entry.
func (f *File) Put(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return eris.Wrap(err, "file cache: create temp")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return eris.Wrapf(err, "file cache: write %s", key)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "file cache: close %s", key)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return eris.Wrapf(err, "file cache: commit %s", key)
	}
	return nil
}

func (f *File) Delete(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return eris.Wrapf(err, "file cache: delete %s", key)
	}
	return nil
}

func (f *File) Close() error { return nil }
