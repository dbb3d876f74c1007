package export

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the per-session memoization of compiled exports.
const DefaultCacheSize = 32

type cacheKey struct {
	fingerprint  Fingerprint
	rate         float64
	offsetSec    float64
	trimStartSec float64
	hasTrimStart bool
	trimEndSec   float64
	hasTrimEnd   bool
}

// Cache memoizes successful export results within a session, keyed by the
// full parameter tuple. Bounded LRU: exports are user-initiated, but output
// bytes are large enough that an unbounded session cache is a leak.
type Cache struct {
	entries *lru.Cache[cacheKey, *Result]
}

func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[cacheKey, *Result](size)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &Cache{entries: entries}
}

func (c *Cache) Get(req Request) (*Result, bool) {
	return c.entries.Get(keyForRequest(req))
}

func (c *Cache) Put(req Request, result *Result) {
	c.entries.Add(keyForRequest(req), result)
}

func (c *Cache) Len() int {
	return c.entries.Len()
}

func keyForRequest(req Request) cacheKey {
	key := cacheKey{
		fingerprint: req.Fingerprint,
		rate:        req.Rate,
		offsetSec:   req.OffsetSec,
	}
	if req.Trim.StartSec != nil {
		key.hasTrimStart = true
		key.trimStartSec = *req.Trim.StartSec
	}
	if req.Trim.EndSec != nil {
		key.hasTrimEnd = true
		key.trimEndSec = *req.Trim.EndSec
	}
	return key
}
