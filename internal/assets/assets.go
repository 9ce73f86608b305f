// Package assets loads keyframe sequence files for a rig and caches the
// resulting animation assets.
package assets

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/crunchyroll/internal/logger"
	"github.com/Faultbox/crunchyroll/pkg/animation"
	"github.com/Faultbox/crunchyroll/pkg/formats"
)

// Library loads assets for one rig. Each file is parsed once; later loads
// return the same immutable *animation.Asset, so tracks that play the same
// file share it.
type Library struct {
	limbs formats.LimbIndexer
	cache *Cache
	mu    sync.Mutex // serializes loads
}

// NewLibrary creates a library for the rig described by limbs.
func NewLibrary(limbs formats.LimbIndexer) *Library {
	return &Library{
		limbs: limbs,
		cache: NewCache(),
	}
}

// Load returns the asset stored at path, reading it on first use.
func (l *Library) Load(path string) (*animation.Asset, error) {
	key := filepath.Clean(path)
	if asset, ok := l.cache.Get(key); ok {
		return asset, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// another goroutine may have loaded it while we waited
	if asset, ok := l.cache.peek(key); ok {
		return asset, nil
	}

	asset, err := formats.LoadKeyframeSequenceFile(key, l.limbs)
	if err != nil {
		return nil, fmt.Errorf("loading asset: %w", err)
	}
	l.cache.Set(key, asset)
	return asset, nil
}

// LoadAll loads every path, stopping at the first failure.
func (l *Library) LoadAll(paths []string) ([]*animation.Asset, error) {
	out := make([]*animation.Asset, len(paths))
	for i, p := range paths {
		asset, err := l.Load(p)
		if err != nil {
			return nil, err
		}
		out[i] = asset
	}
	return out, nil
}

// Paths returns the cached paths in sorted order.
func (l *Library) Paths() []string {
	return l.cache.Keys()
}

// Stats returns cache statistics.
func (l *Library) Stats() (hits, misses int) {
	return l.cache.Stats()
}

// Close drops every cached asset.
func (l *Library) Close() {
	hits, misses := l.cache.Stats()
	logger.Debug("asset library closed",
		zap.Int("assets", l.cache.Len()),
		zap.Int("hits", hits),
		zap.Int("misses", misses))
	l.cache.Clear()
}

// Cache is an in-memory map of loaded assets keyed by path.
type Cache struct {
	data map[string]*animation.Asset
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*animation.Asset),
	}
}

// Get retrieves an asset from cache, counting the hit or miss.
func (c *Cache) Get(key string) (*animation.Asset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	asset, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return asset, ok
}

// peek is Get without touching the stats.
func (c *Cache) peek(key string) (*animation.Asset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	asset, ok := c.data[key]
	return asset, ok
}

// Set stores an asset in cache.
func (c *Cache) Set(key string, asset *animation.Asset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = asset
}

// Len returns the number of cached assets.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Keys returns the cached keys in sorted order.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*animation.Asset)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
