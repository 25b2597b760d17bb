// ABOUTME: On-disk cache for source files handed to stem separation
// ABOUTME: Entries are keyed by source path, size and mtime and reused when present
package cache

import (
	"crypto/sha256"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// DirName is the default cache directory name under os.TempDir
const DirName = "stemdeck-cache"

// Cache manages cached copies of source audio
type Cache struct {
	dir string
}

// New creates a cache rooted at dir, or under os.TempDir when dir is empty
func New(dir string) (*Cache, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), DirName)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &Cache{dir: dir}, nil
}

// Dir returns the cache root
func (c *Cache) Dir() string {
	return c.dir
}

// Subdir returns a named directory inside the cache, creating it if needed
func (c *Cache) Subdir(name string) (string, error) {
	dir := filepath.Join(c.dir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	return dir, nil
}

// Path returns where the cached copy of src lives, with ext replacing the
// source extension. The file may not exist yet. The key covers the source's
// size and modification time, so editing the source gives a new entry.
func (c *Cache) Path(src, ext string) string {
	abs, err := filepath.Abs(src)
	if err != nil {
		abs = src
	}

	key := abs
	if info, err := os.Stat(src); err == nil {
		key = fmt.Sprintf("%s\x00%d\x00%d", abs, info.Size(), info.ModTime().UnixNano())
	}
	hash := sha256.Sum256([]byte(key))
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	filename := fmt.Sprintf("%s-%x%s", base, hash[:6], ext)
	return filepath.Join(c.dir, filename)
}

// Lookup returns the cached copy of src with ext if it exists
func (c *Cache) Lookup(src, ext string) (string, bool) {
	path := c.Path(src, ext)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// Store copies src into the cache unless a copy is already there, and
// returns the cached path
func (c *Cache) Store(src string) (string, error) {
	ext := strings.ToLower(filepath.Ext(src))
	if path, ok := c.Lookup(src, ext); ok {
		log.Printf("Cache hit: %s", path)
		return path, nil
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	cachePath := c.Path(src, ext)
	f, err := os.CreateTemp(c.dir, ".partial-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create cache file: %w", err)
	}
	tmp := f.Name()

	if _, err := io.Copy(f, in); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to cache source: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to cache source: %w", err)
	}
	if err := os.Rename(tmp, cachePath); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to cache source: %w", err)
	}

	log.Printf("Cached %s as %s", src, cachePath)
	return cachePath, nil
}

// Cleanup removes the cache directory and everything in it
func (c *Cache) Cleanup() error {
	return os.RemoveAll(c.dir)
}
