// Package cache keeps decoded API responses in files under the cache
// directory.
package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Type names a subdirectory of the cache root.
type Type string

// ResponseCache holds API listings.
const ResponseCache Type = "responses"

const cacheExt = ".gob"

var errInvalidID = errors.New("invalid id")

// Cache stores one file per id. Writes land in a temporary file that is
// renamed into place, so a reader sees either the old or the new entry.
type Cache struct {
	dir string
}

// New creates the cacheType directory under baseDir.
func New(baseDir string, cacheType Type) (*Cache, error) {
	dir := filepath.Join(baseDir, string(cacheType))
	if err := os.MkdirAll(dir, 0o700); err != nil { //nolint:mnd
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) path(id string) string {
	return filepath.Join(c.dir, id+cacheExt)
}

// Read opens the entry for id and hands it to readFn.
func (c *Cache) Read(id string, readFn func(io.Reader) error) error {
	if id == "" {
		return fmt.Errorf("read: %w", errInvalidID)
	}
	file, err := os.Open(c.path(id))
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	defer file.Close() //nolint:errcheck

	if err := readFn(file); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	return nil
}

// Write replaces the entry for id with what writeFn produces.
func (c *Cache) Write(id string, writeFn func(io.Writer) error) error {
	if id == "" {
		return fmt.Errorf("write: %w", errInvalidID)
	}

	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if err := writeFn(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(id)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Delete removes a cached item by its ID.
func (c *Cache) Delete(id string) error {
	if id == "" {
		return fmt.Errorf("delete: %w", errInvalidID)
	}
	if err := os.Remove(c.path(id)); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// Clear removes every entry and returns how many there were.
func (c *Cache) Clear() (int, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*"+cacheExt))
	if err != nil {
		return 0, fmt.Errorf("clear: %w", err)
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil && !errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("clear: %w", err)
		}
	}
	return len(matches), nil
}
