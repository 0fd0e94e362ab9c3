package resolver

import (
	"sync"
	"time"

	"github.com/pilacorp/go-identity-sdk/did"
)

// documentCache holds resolved documents in a thread-safe manner. Documents
// are treated as read-only snapshots once cached.
type documentCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	doc     *did.Document
	expires time.Time
}

func newDocumentCache(ttl time.Duration) *documentCache {
	return &documentCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *documentCache) get(key string) (*did.Document, bool) {
	if c.ttl == 0 {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.doc, true
}

func (c *documentCache) put(key string, doc *did.Document) {
	if c.ttl == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		doc:     doc,
		expires: time.Now().Add(c.ttl),
	}
}

func (c *documentCache) delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}
