// Package syscache memoizes factorized spline systems across the profiles
// of a batch. A system is a pure function of (boundary depths, lambda) and
// never holds property values, so a hit is always semantically identical to
// a rebuild; the cache trades memory for the cost of matrix assembly and
// factorization. Capacity is bounded with least-recently-used eviction.
//
// Workers in a parallel batch each own a private Cache instance, so no
// numeric state crosses the concurrency boundary.
package syscache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"mpspline/internal/spline"
)

// Cache is a bounded LRU of factorized spline systems.
type Cache struct {
	entries *lru.Cache[string, *spline.System]

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache holding at most capacity systems. Capacity values
// below one fall back to the documented default.
func New(capacity int) *Cache {
	if capacity < 1 {
		capacity = spline.DefaultCacheSize
	}
	entries, err := lru.New[string, *spline.System](capacity)
	if err != nil {
		// lru.New only fails for non-positive sizes, which the guard above
		// rules out.
		panic(err)
	}
	return &Cache{entries: entries}
}

// GetOrBuild returns the cached system for (tops, bottoms, lambda),
// invoking build on a miss. The bool reports whether this was a hit.
// Build errors are returned as-is and nothing is cached for them.
func (c *Cache) GetOrBuild(tops, bottoms []float64, lambda float64, build func() (*spline.System, error)) (*spline.System, bool, error) {
	key := Key(tops, bottoms, lambda)
	if sys, ok := c.entries.Get(key); ok {
		c.hits.Add(1)
		return sys, true, nil
	}
	c.misses.Add(1)
	sys, err := build()
	if err != nil {
		return nil, false, err
	}
	c.entries.Add(key, sys)
	return sys, false, nil
}

// Len returns the number of cached systems.
func (c *Cache) Len() int { return c.entries.Len() }

// Stats returns cumulative hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Key derives the complete cache key for a depth configuration: the exact
// bit patterns of every boundary plus lambda. Property values are never
// part of the key, because they are not part of the system.
func Key(tops, bottoms []float64, lambda float64) string {
	h := sha256.New()
	var buf [8]byte
	write := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		h.Write(buf[:])
	}
	write(float64(len(tops)))
	for _, t := range tops {
		write(t)
	}
	for _, b := range bottoms {
		write(b)
	}
	write(lambda)
	return hex.EncodeToString(h.Sum(nil))
}
