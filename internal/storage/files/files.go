// Package files implements the byte-level file primitives the core works through.
package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"vsmm/internal/domain"
	"vsmm/internal/linker"
)

// Store reads and writes files on the local filesystem.
// Copy delegates to a linker so deploys can copy, symlink or hardlink.
type Store struct {
	linker linker.Linker
}

// New creates a file store that places files with the given deploy method
func New(method domain.DeployMethod) *Store {
	return &Store{linker: linker.New(method)}
}

// Method returns the deploy method used by Copy
func (s *Store) Method() domain.DeployMethod {
	return s.linker.Method()
}

// Read returns the contents of path. A missing file yields an error matching fs.ErrNotExist.
func (s *Store) Read(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("reading %s: %w", path, fs.ErrNotExist)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// Write replaces path with data atomically (temp file + rename) and returns path
func (s *Store) Write(path string, data []byte) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating dir for %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("renaming %s: %w", path, err)
	}
	return path, nil
}

// Copy places src at dst using the store's deploy method
func (s *Store) Copy(src, dst string) error {
	if !s.ExistsAsFile(src) {
		return fmt.Errorf("%w: source %s is not a file", domain.ErrLinkFailed, src)
	}
	return s.linker.Place(src, dst)
}

// Delete removes path. It reports false without error when nothing was there.
func (s *Store) Delete(path string) (bool, error) {
	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("checking %s: %w", path, err)
	}
	if err := os.Remove(path); err != nil {
		return false, fmt.Errorf("deleting %s: %w", path, err)
	}
	return true, nil
}

// ExistsAsFile reports whether path exists and is a regular file (symlinks are followed)
func (s *Store) ExistsAsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// List returns the names of regular files directly inside dir, sorted.
// A missing directory yields an empty list.
func (s *Store) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}
