package thumbnail

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const fileExt = ".png"

// Cache is a flat directory of rendered thumbnails named by key digest.
// There is no index: existence of the file is the hit test.
type Cache struct {
	dir string
}

// Stats summarizes cache contents.
type Stats struct {
	Entries int
	Bytes   int64
}

// NewCache returns a cache rooted at dir. The directory is created lazily.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns where key's thumbnail lives, whether or not it exists.
func (c *Cache) Path(key Key) string {
	return filepath.Join(c.dir, key.Digest()+fileExt)
}

// Lookup reports the cached thumbnail path for key when present.
func (c *Cache) Lookup(key Key) (string, bool) {
	path := c.Path(key)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return path, true
}

// EnsureDir creates the cache directory.
func (c *Cache) EnsureDir() error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create thumbnail cache %q: %w", c.dir, err)
	}
	return nil
}

// Stats counts cached thumbnails. A missing directory is an empty cache.
func (c *Cache) Stats() (Stats, error) {
	var stats Stats
	err := c.walk(func(_ string, info fs.FileInfo) error {
		stats.Entries++
		stats.Bytes += info.Size()
		return nil
	})
	return stats, err
}

// Clear removes every cached thumbnail and returns how many were removed.
// Files that are not thumbnails are left alone.
func (c *Cache) Clear() (int, error) {
	removed := 0
	err := c.walk(func(path string, _ fs.FileInfo) error {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		removed++
		return nil
	})
	return removed, err
}

func (c *Cache) walk(fn func(path string, info fs.FileInfo) error) error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read thumbnail cache: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if err := fn(filepath.Join(c.dir, entry.Name()), info); err != nil {
			return err
		}
	}
	return nil
}
