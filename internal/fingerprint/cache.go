package fingerprint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/twiced-technology-gmbh/taskplan/internal/filelock"
)

const (
	cacheFileName = "fingerprints.json"
	cacheFileMode = 0o600
)

// Entry records the job that served a fingerprint.
type Entry struct {
	JobID     string    `json:"jobId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Cache maps fingerprints to the jobs that executed them, stored as a JSON
// file in the workspace directory.
type Cache struct {
	dir string
}

// NewCache returns the cache stored in dir.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

func (c *Cache) path() string {
	return filepath.Join(c.dir, cacheFileName)
}

// Lookup returns the entry for fp, if any.
func (c *Cache) Lookup(fp string) (Entry, bool, error) {
	entries, err := c.load()
	if err != nil {
		return Entry{}, false, err
	}
	e, ok := entries[fp]
	return e, ok, nil
}

// Record stores fp → jobID, replacing any previous entry.
func (c *Cache) Record(fp, jobID string, now time.Time) error {
	lk, err := filelock.Acquire(filepath.Join(c.dir, ".fingerprints.lock"))
	if err != nil {
		return err
	}
	defer lk.Release() //nolint:errcheck // best-effort unlock on exit

	entries, err := c.load()
	if err != nil {
		return err
	}
	entries[fp] = Entry{JobID: jobID, CreatedAt: now}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling fingerprint cache: %w", err)
	}
	tmp := c.path() + ".tmp"
	if err := os.WriteFile(tmp, data, cacheFileMode); err != nil {
		return fmt.Errorf("writing fingerprint cache: %w", err)
	}
	if err := os.Rename(tmp, c.path()); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming fingerprint cache: %w", err)
	}
	return nil
}

func (c *Cache) load() (map[string]Entry, error) {
	entries := make(map[string]Entry)
	data, err := os.ReadFile(c.path())
	if err != nil {
		if os.IsNotExist(err) {
			return entries, nil
		}
		return nil, fmt.Errorf("reading fingerprint cache: %w", err)
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing fingerprint cache: %w", err)
	}
	return entries, nil
}
