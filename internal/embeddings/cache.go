package embeddings

import (
	"container/list"
	"fmt"
	"sync"
)

// Eviction policies accepted by NewCache.
const (
	PolicyFIFO = "fifo"
	PolicyLRU  = "lru"
)

// DefaultCacheEntries is used when a cache is created with a non-positive size.
const DefaultCacheEntries = 1000

// Cache is a bounded, concurrency-safe map from a canonical skill-set key to
// its embedding vector.
//
// With PolicyFIFO the oldest inserted entry is evicted first and reads do
// not change the order. With PolicyLRU a Get moves the entry to the front.
type Cache struct {
	mu         sync.Mutex
	maxEntries int
	policy     string
	order      *list.List // front = newest (fifo) or most recently used (lru)
	items      map[string]*list.Element
	hits       int
	misses     int
}

type cacheEntry struct {
	key string
	vec []float32
}

// NewCache creates a cache holding at most maxEntries vectors.
func NewCache(maxEntries int, policy string) (*Cache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	switch policy {
	case "":
		policy = PolicyFIFO
	case PolicyFIFO, PolicyLRU:
	default:
		return nil, fmt.Errorf("unknown cache policy %q (expected %s or %s)", policy, PolicyFIFO, PolicyLRU)
	}
	return &Cache{
		maxEntries: maxEntries,
		policy:     policy,
		order:      list.New(),
		items:      make(map[string]*list.Element),
	}, nil
}

// Get returns the vector cached for key.
func (c *Cache) Get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	if c.policy == PolicyLRU {
		c.order.MoveToFront(el)
	}
	return el.Value.(*cacheEntry).vec, true
}

// Put stores vec under key, evicting one entry when the cache is full.
// Replacing an existing key keeps its position under PolicyFIFO.
func (c *Cache) Put(key string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*cacheEntry).vec = vec
		if c.policy == PolicyLRU {
			c.order.MoveToFront(el)
		}
		return
	}

	if c.order.Len() >= c.maxEntries {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}
	c.items[key] = c.order.PushFront(&cacheEntry{key: key, vec: vec})
}

// Len returns the number of cached vectors.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns the hit and miss counters since creation.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
