package network

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// defaultFreshness applies to responses that carry no explicit lifetime.
const defaultFreshness = 5 * time.Minute

type cacheEntry struct {
	response  *Response
	storedAt  time.Time
	expiresAt time.Time
}

// Cache is a bounded in-memory cache of successful GET responses keyed by URL.
type Cache struct {
	entries map[string]*cacheEntry
	maxSize int
	now     func() time.Time
	mu      sync.Mutex
}

// NewCache creates a cache holding at most maxSize responses.
func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &Cache{
		entries: make(map[string]*cacheEntry),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get returns a fresh cached response for url.
func (c *Cache) Get(url string) (*Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[url]
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, url)
		return nil, false
	}
	return entry.response, true
}

// Set stores resp under url unless its Cache-Control forbids it.
func (c *Cache) Set(url string, resp *Response) {
	lifetime, ok := freshness(resp)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[url]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[url] = &cacheEntry{
		response:  resp,
		storedAt:  now,
		expiresAt: now.Add(lifetime),
	}
}

// Len returns the number of stored responses, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// evictOldest must be called with c.mu held.
func (c *Cache) evictOldest() {
	var oldest string
	var oldestAt time.Time
	for url, entry := range c.entries {
		if oldest == "" || entry.storedAt.Before(oldestAt) {
			oldest = url
			oldestAt = entry.storedAt
		}
	}
	if oldest != "" {
		delete(c.entries, oldest)
	}
}

// freshness reports how long resp may be served from cache.
func freshness(resp *Response) (time.Duration, bool) {
	if resp == nil || resp.Header == nil {
		return defaultFreshness, resp != nil
	}

	for _, directive := range strings.Split(resp.Header.Get("Cache-Control"), ",") {
		directive = strings.ToLower(strings.TrimSpace(directive))
		switch {
		case directive == "no-store", directive == "no-cache":
			return 0, false
		case strings.HasPrefix(directive, "max-age="):
			seconds, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age="))
			if err != nil || seconds <= 0 {
				return 0, false
			}
			return time.Duration(seconds) * time.Second, true
		}
	}
	return defaultFreshness, true
}
