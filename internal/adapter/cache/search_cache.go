package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"
	"sync"
	"time"
)

// SearchCache memoises catalog keyword searches as ordered food IDs.
// Entries are dropped when they expire, when the cache is full (least
// recently used first) or when the catalog generation moves on.
type SearchCache struct {
	mu         sync.RWMutex
	entries    map[string]*cacheEntry
	order      []string
	maxSize    int
	ttl        time.Duration
	generation uint64
	now        func() time.Time
}

type cacheEntry struct {
	ids        []string
	timestamp  time.Time
	generation uint64
}

func NewSearchCache(maxSize int, ttl time.Duration) *SearchCache {
	if maxSize <= 0 {
		maxSize = 128
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SearchCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// cacheKey is independent of keyword order, since both AND and OR matching
// are order-insensitive. Keywords are length-prefixed so no two distinct
// queries share an encoding.
func cacheKey(keywords []string, matchAll bool) string {
	sorted := append([]string(nil), keywords...)
	sort.Strings(sorted)
	var data []byte
	for _, k := range sorted {
		data = binary.AppendUvarint(data, uint64(len(k)))
		data = append(data, k...)
	}
	if matchAll {
		data = append(data, 1)
	} else {
		data = append(data, 0)
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

func (c *SearchCache) Get(keywords []string, matchAll bool) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(keywords, matchAll)
	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}

	if c.now().Sub(entry.timestamp) > c.ttl || entry.generation != c.generation {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return nil, false
	}

	c.moveToEnd(key)
	return append([]string(nil), entry.ids...), true
}

func (c *SearchCache) Put(keywords []string, matchAll bool, ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(keywords, matchAll)
	entry := &cacheEntry{
		ids:        append([]string(nil), ids...),
		timestamp:  c.now(),
		generation: c.generation,
	}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = entry
	c.order = append(c.order, key)
}

// Invalidate drops every entry and advances the generation.
func (c *SearchCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	c.generation++
}

func (c *SearchCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

func (c *SearchCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *SearchCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *SearchCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *SearchCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
