package datasource

import (
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"
)

// ResponseCache keeps raw response bodies keyed by request URL
type ResponseCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	hitCount  atomic.Uint64
	missCount atomic.Uint64
}

// NewResponseCache creates a response cache. A zero ttl disables caching.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		return &ResponseCache{}
	}
	return &ResponseCache{
		cache: cache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// Get returns a cached body
func (rc *ResponseCache) Get(url string) ([]byte, bool) {
	if rc.cache == nil {
		return nil, false
	}
	if v, found := rc.cache.Get(url); found {
		if body, ok := v.([]byte); ok {
			rc.hitCount.Add(1)
			return body, true
		}
	}
	rc.missCount.Add(1)
	return nil, false
}

// Set stores a body
func (rc *ResponseCache) Set(url string, body []byte) {
	if rc.cache == nil {
		return
	}
	rc.cache.Set(url, body, rc.ttl)
}

// Clear removes every entry
func (rc *ResponseCache) Clear() {
	if rc.cache != nil {
		rc.cache.Flush()
	}
}

// Stats returns hit and miss counts
func (rc *ResponseCache) Stats() (hits, misses uint64) {
	return rc.hitCount.Load(), rc.missCount.Load()
}
