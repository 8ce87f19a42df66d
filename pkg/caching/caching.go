// Package caching keeps fetched documents on disk for a limited time.
package caching

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"
)

// Cache provides a simple file-based cache with a TTL. Entries are stored
// gzip compressed.
type Cache struct {
	path string
	ttl  time.Duration
	now  func() time.Time
}

// NewCache creates a new Cache instance.
// The cache path will be created if it doesn't exist.
func NewCache(path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{path: path, ttl: ttl, now: time.Now}, nil
}

// Path returns the cache directory.
func (c *Cache) Path() string {
	return c.path
}

func (c *Cache) file(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(c.path, fmt.Sprintf("%x.gz", hash))
}

// Get returns the entry for key if it exists and is younger than the TTL.
func (c *Cache) Get(key string) ([]byte, bool) {
	filePath := c.file(key)

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, false
	}
	if c.now().Sub(info.ModTime()) > c.ttl {
		return nil, false
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, false
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores data under key. The entry is written to a temporary file
// first so readers never see partial entries.
func (c *Cache) Set(key string, data []byte) error {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("failed to compress cache entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to compress cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(c.path, ".entry-*")
	if err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.file(key)); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}
