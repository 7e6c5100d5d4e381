// Package resultcache holds a bounded, time-expiring cache of fused
// search results keyed by a request fingerprint.
package resultcache

import (
	"container/list"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/kailas-cloud/rankfuse/internal/domain/search/result"
)

// Cache is a FIFO cache with per-entry expiry. Entries are immutable
// once written; callers must not mutate returned slices.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front = newest, back = oldest
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

type cacheEntry struct {
	key      string
	results  []result.Fused
	storedAt time.Time
}

// New creates a cache holding at most maxEntries entries for at most ttl each.
func New(ttl time.Duration, maxEntries int) *Cache {
	return &Cache{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Fingerprint derives a deterministic cache key from the request shape.
// The query enters through its embedding vector, so semantically
// identical requests hit the same entry regardless of formatting
// differences upstream of the embedder.
func Fingerprint(namespace string, limit int, vector []float32) string {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(limit)))
	h.Write([]byte{0})

	buf := make([]byte, 4)
	for _, f := range vector {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(f))
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached results for key. Expired entries are purged
// before lookup.
func (c *Cache) Get(key string) ([]result.Fused, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeExpired()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return elem.Value.(*cacheEntry).results, true
}

// Set stores results under key, evicting the oldest entry once the
// entry count exceeds the maximum.
func (c *Cache) Set(key string, results []result.Fused) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.order.Remove(elem)
		delete(c.entries, key)
	}

	elem := c.order.PushFront(&cacheEntry{key: key, results: results, storedAt: c.now()})
	c.entries[key] = elem

	for c.order.Len() > c.maxEntries {
		c.evictOldest()
	}
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// purgeExpired drops expired entries from the oldest end. Insertion
// order is expiry order, so the scan stops at the first live entry.
func (c *Cache) purgeExpired() {
	cutoff := c.now().Add(-c.ttl)
	for {
		oldest := c.order.Back()
		if oldest == nil {
			return
		}
		if !oldest.Value.(*cacheEntry).storedAt.Before(cutoff) {
			return
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func (c *Cache) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	c.order.Remove(oldest)
	delete(c.entries, oldest.Value.(*cacheEntry).key)
}
