package pipeline

import (
	"sync"

	"github.com/tgergo1/superblocker/network"
	"github.com/tgergo1/superblocker/plan"
	"github.com/tgergo1/superblocker/route"
)

// CacheEntry is one finished partition plus the artifacts the router needs.
// Entries are immutable once inserted.
type CacheEntry struct {
	Partition *plan.Partition
	Graph     *network.Graph
	Router    *route.Router
}

// Cache is the process-wide partition store, keyed by canonical bbox. All
// access goes through a read-write lock: the partition endpoint inserts,
// the route endpoint reads. Garbage collection is out of scope.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry
	lastKey string
}

// NewCache returns an empty store.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*CacheEntry)}
}

// Get returns the entry for the canonical bbox key.
func (c *Cache) Get(key string) (*CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]

	return e, ok
}

// Put inserts an entry. The write lock is held only for the insert; an
// existing entry is replaced (same bbox, fresher run).
func (c *Cache) Put(key string, e *CacheEntry) {
	c.mu.Lock()
	c.entries[key] = e
	c.lastKey = key
	c.mu.Unlock()
}

// Latest returns the most recently inserted entry, for route requests that
// do not name a bbox.
func (c *Cache) Latest() (*CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lastKey == "" {
		return nil, false
	}
	e, ok := c.entries[c.lastKey]

	return e, ok
}

// Len reports the number of cached partitions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
