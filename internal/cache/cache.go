// Package cache implements the content-hashed fact cache (C6):
// (path -> content_hash -> FileFacts), persisted to disk between runs
// and lazy-verified on load.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/tldr/internal/types"
)

// entry is the on-disk/in-memory record for one path.
type entry struct {
	ContentHash string          `json:"content_hash"`
	Facts       types.FileFacts `json:"facts"`
}

// Cache maps a path to its last-seen content hash and extracted facts.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

// HashContent returns the cache's content digest for source, as a fixed
// 16-hex-character string. xxhash is collision-resistant enough for
// change detection; cryptographic strength is unnecessary (spec.md §4.6).
func HashContent(source []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(source))
}

// Get returns the cached facts for path if contentHash still matches what
// was stored, and ok=true. A mismatch (or a cold path) is a miss.
func (c *Cache) Get(path, contentHash string) (types.FileFacts, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[path]
	if !ok || e.ContentHash != contentHash {
		return types.FileFacts{}, false
	}
	return e.Facts, true
}

// Put stores facts for path under contentHash, replacing any prior entry.
func (c *Cache) Put(path, contentHash string, facts types.FileFacts) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = entry{ContentHash: contentHash, Facts: facts}
}

// Invalidate removes path's cached entry outright, used when a file is
// deleted rather than merely changed.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// onDisk is the persisted shape of the whole cache.
type onDisk struct {
	Entries map[string]entry `json:"entries"`
}

// SaveTo persists the cache to path as JSON.
func (c *Cache) SaveTo(path string) error {
	c.mu.RLock()
	snapshot := make(map[string]entry, len(c.entries))
	for k, v := range c.entries {
		snapshot[k] = v
	}
	c.mu.RUnlock()

	data, err := json.Marshal(onDisk{Entries: snapshot})
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadFrom loads a previously persisted cache. A missing file yields an
// empty cache, not an error. Entries are lazy-verified: their content
// hash is only re-checked the next time Get is called for that path,
// matching spec.md §4.6's "on load, lazy-verify entries".
func LoadFrom(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("read cache: %w", err)
	}

	var d onDisk
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshal cache: %w", err)
	}
	if d.Entries == nil {
		d.Entries = make(map[string]entry)
	}
	return &Cache{entries: d.Entries}, nil
}

// ValidateHex is a defensive check used by tests and diagnostics to
// confirm HashContent produces well-formed hex, independent of its value.
func ValidateHex(h string) bool {
	_, err := hex.DecodeString(h)
	return err == nil && len(h) == 16
}
