package cache

import (
	"crypto/sha1" //nolint:gosec
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ExpiringCache stores items that expire. The expiry is kept in the file
// name as "<hashed key>.<unix seconds>".
type ExpiringCache struct {
	cache *Cache
	now   func() time.Time
}

// NewExpiring creates a new cache instance that supports item expiration.
func NewExpiring(path string, cacheType Type) (*ExpiringCache, error) {
	cache, err := New(path, cacheType)
	if err != nil {
		return nil, fmt.Errorf("create expiring cache: %w", err)
	}
	return &ExpiringCache{cache: cache, now: time.Now}, nil
}

// hashKey maps arbitrary keys (model ids contain slashes and dots) to safe
// file names.
func hashKey(key string) string {
	return fmt.Sprintf("%x", sha1.Sum([]byte(key))) //nolint:gosec
}

func (c *ExpiringCache) matches(key string) ([]string, error) {
	pattern := filepath.Join(c.cache.dir, hashKey(key)+".*"+cacheExt)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob expiring cache: %w", err)
	}
	return matches, nil
}

func (c *ExpiringCache) Read(key string, readFn func(io.Reader) error) error {
	if key == "" {
		return fmt.Errorf("read: %w", errInvalidID)
	}
	matches, err := c.matches(key)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return os.ErrNotExist
	}

	id := strings.TrimSuffix(filepath.Base(matches[0]), cacheExt)
	_, stamp, ok := strings.Cut(id, ".")
	if !ok {
		return fmt.Errorf("invalid cache filename %q", id)
	}
	expiresAt, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid expiration timestamp %q", stamp)
	}

	if expiresAt < c.now().Unix() {
		if err := c.cache.Delete(id); err != nil {
			return fmt.Errorf("remove expired cache file: %w", err)
		}
		return os.ErrNotExist
	}
	return c.cache.Read(id, readFn)
}

func (c *ExpiringCache) Write(key string, expiresAt time.Time, writeFn func(io.Writer) error) error {
	if key == "" {
		return fmt.Errorf("write: %w", errInvalidID)
	}
	if err := c.Delete(key); err != nil {
		return err
	}
	id := fmt.Sprintf("%s.%d", hashKey(key), expiresAt.Unix())
	return c.cache.Write(id, writeFn)
}

// Delete removes every stored version of key.
func (c *ExpiringCache) Delete(key string) error {
	matches, err := c.matches(key)
	if err != nil {
		return err
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return fmt.Errorf("delete expiring cache file: %w", err)
		}
	}
	return nil
}
