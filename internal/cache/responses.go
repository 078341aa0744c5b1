package cache

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Responses caches decoded API responses on disk for a fixed TTL.
type Responses struct {
	cache  *ExpiringCache
	ttl    time.Duration
	logger *log.Logger
}

// NewResponses creates a response cache under dir.
func NewResponses(dir string, ttl time.Duration, logger *log.Logger) (*Responses, error) {
	cache, err := NewExpiring(dir, ResponseCache)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Responses{cache: cache, ttl: ttl, logger: logger}, nil
}

// Load decodes the cached value for key into v. It reports false on a
// miss, an expired entry or an unreadable file.
func (r *Responses) Load(key string, v any) bool {
	err := r.cache.Read(key, func(rd io.Reader) error {
		return decode(rd, v)
	})
	switch {
	case err == nil:
		return true
	case errors.Is(err, os.ErrNotExist):
		r.logger.Debug("cache miss", "key", key)
	default:
		r.logger.Debug("cache unreadable", "key", key, "err", err)
	}
	return false
}

// Save stores v under key until the TTL elapses.
func (r *Responses) Save(key string, v any) error {
	if r.ttl <= 0 {
		return nil
	}
	return r.cache.Write(key, r.cache.now().Add(r.ttl), func(w io.Writer) error {
		return encode(w, v)
	})
}

// Delete drops the cached value for key and reports whether one was cached.
func (r *Responses) Delete(key string) (bool, error) {
	matches, err := r.cache.matches(key)
	if err != nil || len(matches) == 0 {
		return false, err
	}
	if err := r.cache.Delete(key); err != nil {
		return false, err
	}
	return true, nil
}

// Clear drops every cached response.
func (r *Responses) Clear() (int, error) {
	return r.cache.cache.Clear()
}

func encode(w io.Writer, v any) error {
	if err := gob.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func decode(r io.Reader, v any) error {
	if err := gob.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
