package translate

import (
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache stores validated translations keyed by Request.
type Cache interface {
	Get(req Request) (string, bool)
	Put(req Request, translated string)
	Clear()
	Len() int
}

// MemoryCache is an in-process Cache safe for concurrent use. When capacity
// is positive the least recently used entry is evicted once the cache is
// full; a capacity of zero never evicts. Entries do not expire.
type MemoryCache struct {
	lru *expirable.LRU[string, string]
}

// NewMemoryCache creates a cache holding at most capacity entries.
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity < 0 {
		capacity = 0
	}
	return &MemoryCache{lru: expirable.NewLRU[string, string](capacity, nil, 0)}
}

func (c *MemoryCache) Get(req Request) (string, bool) {
	return c.lru.Get(req.Normalize().key())
}

// Put stores translated for req, replacing any earlier value.
func (c *MemoryCache) Put(req Request, translated string) {
	c.lru.Add(req.Normalize().key(), translated)
}

func (c *MemoryCache) Clear() { c.lru.Purge() }

func (c *MemoryCache) Len() int { return c.lru.Len() }
