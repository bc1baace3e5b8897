package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CacheFile is the summary cache file name inside the data directory.
const CacheFile = "latest_summary.txt"

// ErrNoSummary is returned by Cache.Load when nothing has been summarized yet.
var ErrNoSummary = errors.New("no cached summary")

// Cache is the single most recent summary, kept on disk so it survives restarts.
type Cache struct {
	mu   sync.Mutex
	path string
}

// NewCache stores the summary at dataDir/latest_summary.txt.
func NewCache(dataDir string) *Cache {
	return &Cache{path: filepath.Join(dataDir, CacheFile)}
}

// Path of the cache file.
func (c *Cache) Path() string { return c.path }

// Load returns the cached summary or ErrNoSummary.
func (c *Cache) Load() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoSummary
		}
		return "", fmt.Errorf("read summary cache: %w", err)
	}
	return string(b), nil
}

// Store overwrites the cached summary. The write goes through a temp file and
// rename so readers never see a partial summary.
func (c *Cache) Store(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(c.path), dirPerm); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".latest_summary-*")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp cache: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace summary cache: %w", err)
	}
	return nil
}
