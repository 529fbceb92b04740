// Package filestore keeps contract documents as files under a directory.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/reoring/contractkit/internal/log"
	"github.com/reoring/contractkit/store"
)

const tmpPrefix = ".tmp-"

// Store is a store.DocumentStore backed by a directory tree.
type Store struct {
	root string
}

var _ store.DocumentStore = (*Store)(nil)

// New returns a store rooted at dir, creating it when missing.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &Store{root: dir}, nil
}

// Root returns the store directory.
func (s *Store) Root() string { return s.root }

// Path returns the file path of location.
func (s *Store) Path(location string) string {
	return filepath.Join(s.root, filepath.FromSlash(location))
}

// Write replaces the file atomically: content goes to a temporary file in
// the same directory which is then renamed over the target.
func (s *Store) Write(_ context.Context, location string, data []byte) error {
	if err := store.ValidateLocation(location); err != nil {
		return err
	}
	target := s.Path(location)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, tmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	log.Debug(log.CatStore, "wrote file", "path", target, "bytes", len(data))
	return nil
}

func (s *Store) Read(_ context.Context, location string) ([]byte, error) {
	if err := store.ValidateLocation(location); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.Path(location))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", location, store.ErrNotFound)
	}
	return b, err
}

// List walks the directory and returns every document location, skipping
// in-flight temporary files.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var out []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tmpPrefix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.root, err)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) Delete(_ context.Context, location string) error {
	if err := store.ValidateLocation(location); err != nil {
		return err
	}
	err := os.Remove(s.Path(location))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", location, store.ErrNotFound)
	}
	return err
}
