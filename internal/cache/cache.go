// Package cache persists successful metadata resolutions between runs so
// repeated sorts of the same series don't hammer the providers.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/mydehq/mediasort/internal/types"
)

// Cache is a mutex-guarded map of resolved matches, loaded from and
// saved to a JSON file. A nil *Cache is valid and disabled: every Get
// misses and every Put is dropped.
type Cache struct {
	path string

	mu    sync.Mutex
	items map[string]types.MetadataMatch
	dirty bool
}

// Load reads the cache file at path. A missing file yields an empty
// cache; an empty path yields a disabled (nil) cache.
func Load(path string) (*Cache, error) {
	if path == "" {
		return nil, nil
	}

	c := &Cache{path: path, items: make(map[string]types.MetadataMatch)}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache %s: %w", path, err)
	}
	if len(raw) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(raw, &c.items); err != nil {
		return nil, fmt.Errorf("failed to parse cache %s: %w", path, err)
	}
	return c, nil
}

// Key builds the lookup key for one resolution request.
func Key(term string, mediaType types.MediaType, season, episode int) string {
	return fmt.Sprintf("%s|%s|%d|%d", term, mediaType, season, episode)
}

// Get returns the cached match for key, if any.
func (c *Cache) Get(key string) (types.MetadataMatch, bool) {
	if c == nil {
		return types.MetadataMatch{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.items[key]
	return m, ok
}

// Put stores a match under key.
func (c *Cache) Put(key string, match types.MetadataMatch) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = match
	c.dirty = true
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Save writes the cache back to its file if anything changed.
func (c *Cache) Save() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}

	raw, err := json.MarshalIndent(c.items, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write cache %s: %w", c.path, err)
	}
	c.dirty = false
	return nil
}
