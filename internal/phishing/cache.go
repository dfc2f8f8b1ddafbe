package phishing

import (
	"container/list"
	"sync"
	"time"
)

// scanCache is an LRU cache with TTL for completed assessments, keyed by the
// exact scan input. Repeat scans of a hot URL skip the network entirely.
type scanCache struct {
	maxSize int
	ttl     time.Duration
	items   map[string]*cacheEntry
	lru     *list.List
	mu      sync.Mutex
}

type cacheEntry struct {
	key       string
	value     Assessment
	element   *list.Element
	expiresAt time.Time
}

func newScanCache(maxSize int, ttl time.Duration) *scanCache {
	return &scanCache{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*cacheEntry),
		lru:     list.New(),
	}
}

func (c *scanCache) get(key string) (Assessment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok {
		return Assessment{}, false
	}
	if time.Now().After(entry.expiresAt) {
		c.remove(entry)
		return Assessment{}, false
	}
	c.lru.MoveToFront(entry.element)
	return entry.value, true
}

func (c *scanCache) set(key string, value Assessment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.items[key]; ok {
		entry.value = value
		entry.expiresAt = time.Now().Add(c.ttl)
		c.lru.MoveToFront(entry.element)
		return
	}

	entry := &cacheEntry{key: key, value: value, expiresAt: time.Now().Add(c.ttl)}
	entry.element = c.lru.PushFront(entry)
	c.items[key] = entry

	if len(c.items) > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.remove(oldest.Value.(*cacheEntry))
		}
	}
}

func (c *scanCache) remove(entry *cacheEntry) {
	delete(c.items, entry.key)
	c.lru.Remove(entry.element)
}

func (c *scanCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
