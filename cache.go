package tmpsi

import (
	"sync"

	"github.com/niclabs/tmpsi/gbf"
	"github.com/niclabs/tmpsi/paillier"
)

type filterKey struct {
	id      string
	version uint64
	modulus string
}

func newFilterKey(p Party, pk *paillier.PublicKey) filterKey {
	return filterKey{id: p.ID, version: p.Version, modulus: pk.N.Text(16)}
}

// FilterCache keeps generated filters across rounds. A filter is reused only
// for the same party ID, the same Version and the same key; bump Version
// whenever a party's elements change. It is safe for concurrent use.
type FilterCache struct {
	mu      sync.Mutex
	filters map[filterKey]*gbf.Filter
}

// NewFilterCache returns an empty cache.
func NewFilterCache() *FilterCache {
	return &FilterCache{filters: make(map[filterKey]*gbf.Filter)}
}

func (c *FilterCache) get(p Party, pk *paillier.PublicKey) (*gbf.Filter, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.filters[newFilterKey(p, pk)]
	return f, ok
}

// put stores f, replacing older versions of the same party under pk.
func (c *FilterCache) put(p Party, pk *paillier.PublicKey, f *gbf.Filter) {
	key := newFilterKey(p, pk)
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.filters {
		if k.id == key.id && k.modulus == key.modulus {
			delete(c.filters, k)
		}
	}
	c.filters[key] = f
}

// Invalidate drops every filter of party id and returns how many were
// dropped.
func (c *FilterCache) Invalidate(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.filters {
		if k.id == id {
			delete(c.filters, k)
			n++
		}
	}
	return n
}

// Len returns the number of cached filters.
func (c *FilterCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.filters)
}
