// Package file stores datasets as JSON files in a local directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

// Store implements domain.DatasetStore on a directory. Writes go to a temp
// file in the same directory and are renamed into place, so readers see
// either the old or the new document.
type Store struct {
	dir string
}

// New creates the directory if needed and returns a Store on it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file: create dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Name implements domain.DatasetStore.
func (s *Store) Name() string { return "file" }

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("file: invalid dataset name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

// Put atomically replaces the dataset file.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("file: create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("file: write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("file: sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file: close %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("file: chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("file: rename %s: %w", name, err)
	}
	return nil
}

// Get reads the dataset file, returning domain.ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file: get %s: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("file: get %s: %w", name, err)
	}
	return data, nil
}

var _ domain.DatasetStore = (*Store)(nil)
