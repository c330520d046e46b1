package client

import (
	"encoding/json"
	"slices"
	"sync"
	"time"
)

// entry is one cached query result: the raw "data" payload of the response
// and the validator that came with it.
type entry struct {
	key       []string
	data      json.RawMessage
	etag      string
	fetchedAt time.Time
}

// QueryCache stores query results under hierarchical keys such as
// ["tour-packages", "destination-type", "3"]. Invalidating a key drops every
// entry that starts with it.
//
// Each key root carries a generation that Invalidate advances. A query
// records the generation before it goes to the network and stores its result
// only if no invalidation happened in between.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	gens    map[string]uint64
	all     uint64
}

// NewQueryCache returns an empty cache.
func NewQueryCache() *QueryCache {
	return &QueryCache{
		entries: make(map[string]*entry),
		gens:    make(map[string]uint64),
	}
}

func flatten(key []string) string {
	b, _ := json.Marshal(key)
	return string(b)
}

func (c *QueryCache) get(key []string) (entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[flatten(key)]
	if !ok {
		return entry{}, false
	}
	return *e, true
}

// generation is the invalidation count seen by key's root.
func (c *QueryCache) generation(key []string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generationLocked(key)
}

func (c *QueryCache) generationLocked(key []string) uint64 {
	if len(key) == 0 {
		return c.all
	}
	return c.all + c.gens[key[0]]
}

// putIfCurrent stores e unless its root was invalidated after gen was read.
func (c *QueryCache) putIfCurrent(e entry, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generationLocked(e.key) != gen {
		return false
	}
	c.entries[flatten(e.key)] = &e
	return true
}

// touch marks an entry as freshly validated.
func (c *QueryCache) touch(key []string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[flatten(key)]; ok {
		e.fetchedAt = at
	}
}

// Invalidate removes every entry whose key has the given prefix and reports
// how many were removed.
func (c *QueryCache) Invalidate(prefix ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(prefix) == 0 {
		c.all++
	} else {
		c.gens[prefix[0]]++
	}
	n := 0
	for k, e := range c.entries {
		if len(e.key) >= len(prefix) && slices.Equal(e.key[:len(prefix)], prefix) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Len is the number of cached queries.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
