package resolve

import (
	"sort"
	"sync"
	"time"
)

type recordKind string

const (
	kindForward recordKind = "forward"
	kindReverse recordKind = "reverse"
)

// record is one cached resolution. Expired records are logically absent:
// get purges them and reports a miss.
type record struct {
	key       string
	value     string
	aliases   []string
	kind      recordKind
	createdAt time.Time
}

func (r record) expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(r.createdAt) > ttl
}

// CacheStats is a point-in-time snapshot of the resolution cache.
type CacheStats struct {
	Size       int      `json:"size"`
	Enabled    bool     `json:"enabled"`
	TTLSeconds float64  `json:"ttl_seconds"`
	Keys       []string `json:"keys"`
}

// cache is a mutex-guarded TTL map owned exclusively by the Resolver.
// The lock is held only for the duration of a single operation, never
// across a network call.
type cache struct {
	mu      sync.Mutex
	enabled bool
	ttl     time.Duration
	records map[string]record
	now     func() time.Time // for testing, defaults to time.Now
}

func newCache(enabled bool, ttl time.Duration) *cache {
	return &cache{
		enabled: enabled,
		ttl:     ttl,
		records: make(map[string]record),
		now:     time.Now,
	}
}

// get returns the record for key unless the cache is disabled or the
// record has expired. Expired records are removed as a side effect.
func (c *cache) get(key string) (record, bool) {
	if !c.enabled {
		return record{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[key]
	if !ok {
		return record{}, false
	}
	if rec.expired(c.ttl, c.now()) {
		delete(c.records, key)
		return record{}, false
	}
	return rec, true
}

// put inserts or overwrites the record for rec.key.
func (c *cache) put(rec record) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rec.createdAt = c.now()
	c.records[rec.key] = rec
}

func (c *cache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records = make(map[string]record)
}

// setTTL changes the expiry window for future checks only; existing
// record timestamps are untouched.
func (c *cache) setTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ttl = ttl
}

// sweep removes every expired record and returns how many were dropped.
func (c *cache) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	dropped := 0
	for key, rec := range c.records {
		if rec.expired(c.ttl, now) {
			delete(c.records, key)
			dropped++
		}
	}
	return dropped
}

func (c *cache) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.records))
	for key := range c.records {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return CacheStats{
		Size:       len(c.records),
		Enabled:    c.enabled,
		TTLSeconds: c.ttl.Seconds(),
		Keys:       keys,
	}
}
