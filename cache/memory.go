package cache

import "sync"

// InMemoryCache is a thread-safe, unbounded map of cache key to translated
// text. It is meant to live for one session and be discarded wholesale.
type InMemoryCache struct {
	entries map[string]string
	mu      sync.RWMutex
}

// NewInMemoryCache creates an empty session cache.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		entries: make(map[string]string),
	}
}

// Get retrieves a value from the cache.
func (c *InMemoryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.entries[key]
	return val, ok
}

// Set stores a value in the cache, replacing any previous value.
func (c *InMemoryCache) Set(key string, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

// Len returns the number of entries in the cache.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all entries from the cache.
func (c *InMemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]string)
}

var _ TranslationCache = (*InMemoryCache)(nil)
