package embedding

import (
	"container/list"
	"crypto/sha256"
	"sync"
)

// cacheKey is the SHA-256 of model name and text. Chunk texts run to a few kilobytes, so the
// cache holds digests rather than the texts themselves.
type cacheKey [sha256.Size]byte

func keyFor(model, text string) cacheKey {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	var k cacheKey
	copy(k[:], h.Sum(nil))
	return k
}

type cached struct {
	key    cacheKey
	vector []float32
}

// CacheStats counts lookups since the cache was created.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// EmbeddingCache is an LRU of embeddings per (model, text). Re-embedding an unchanged bill
// hits the cache for every chunk.
type EmbeddingCache struct {
	mu       sync.Mutex
	capacity int
	model    string
	entries  map[cacheKey]*list.Element
	order    *list.List // front is most recently used
	hits     int64
	misses   int64
}

// NewEmbeddingCache creates a cache for vectors produced by model, holding at most capacity entries.
func NewEmbeddingCache(model string, capacity int) *EmbeddingCache {
	return &EmbeddingCache{
		capacity: capacity,
		model:    model,
		entries:  make(map[cacheKey]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the cached embedding of text.
func (c *EmbeddingCache) Get(text string) ([]float32, bool) {
	k := keyFor(c.model, text)
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[k]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return el.Value.(*cached).vector, true
}

// Set stores the embedding of text, evicting the least recently used entry when full.
func (c *EmbeddingCache) Set(text string, vector []float32) {
	if c.capacity <= 0 {
		return
	}
	k := keyFor(c.model, text)
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[k]; ok {
		el.Value.(*cached).vector = vector
		c.order.MoveToFront(el)
		return
	}
	c.entries[k] = c.order.PushFront(&cached{key: k, vector: vector})
	for c.order.Len() > c.capacity {
		last := c.order.Back()
		c.order.Remove(last)
		delete(c.entries, last.Value.(*cached).key)
	}
}

// Stats returns hit and miss counts and the current size.
func (c *EmbeddingCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Entries: c.order.Len()}
}
