// Package reading resolves the kana pronunciation of kanji words and
// checks words against a dictionary, swallowing lookup failures.
package reading

import "sync"

// Cache memoizes readings, including misses.
type Cache interface {
	// Get returns the cached reading. ok is false on a cache miss; found
	// is false when the word was cached as having no reading.
	Get(word string) (reading string, found, ok bool)
	Set(word, reading string, found bool)
	Delete(word string)
}

type cacheEntry struct {
	reading string
	found   bool
}

// memoryCache lives as long as the process. Entries are never evicted.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewMemoryCache returns an unbounded in-memory Cache.
func NewMemoryCache() Cache {
	return &memoryCache{entries: make(map[string]cacheEntry)}
}

func (c *memoryCache) Get(word string) (string, bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[word]
	return e.reading, e.found, ok
}

func (c *memoryCache) Set(word, reading string, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[word] = cacheEntry{reading: reading, found: found}
}

func (c *memoryCache) Delete(word string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, word)
}
