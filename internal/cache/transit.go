package cache

import (
	"fmt"
	"time"

	"github.com/shiva/tripweaver/internal/model"
)

// transitBucketWidth is the departure-time quantization used for TransitCache
// keys. Two lookups for the same origin/destination/mode that depart within
// the same 5-minute bucket share a cache entry, per spec.md's C3 TransitCache.
const transitBucketWidth = 5 * time.Minute

// TransitLeg is the cached value for a transit lookup: duration and
// distance, mirroring what MapProvider.TransitTime returns.
type TransitLeg struct {
	Duration  time.Duration
	DistanceM float64
}

// TransitCache caches transit-time lookups keyed by origin, destination,
// mode, and a bucketed departure time.
type TransitCache struct {
	cache *TTLCache[TransitLeg]
}

// NewTransitCache builds a TransitCache with the given capacity, TTL, and
// optional Redis-backed L2 tier (nil disables it).
func NewTransitCache(capacity int, ttl time.Duration, l2 Distributed[TransitLeg]) *TransitCache {
	return &TransitCache{
		cache: New(Options[TransitLeg]{
			Capacity:        capacity,
			DefaultTTL:      ttl,
			CleanupInterval: time.Minute,
			Distributed:     l2,
		}),
	}
}

func transitKey(fromID, toID string, mode model.Mode, depart time.Time) string {
	bucket := depart.Unix() / int64(transitBucketWidth.Seconds())
	return fmt.Sprintf("%s|%s|%s|%d", fromID, toID, mode, bucket)
}

// Get returns the cached transit leg for a lookup, if present.
func (c *TransitCache) Get(fromID, toID string, mode model.Mode, depart time.Time) (TransitLeg, bool) {
	return c.cache.Get(transitKey(fromID, toID, mode, depart))
}

// Set stores the transit leg resolved for a lookup.
func (c *TransitCache) Set(fromID, toID string, mode model.Mode, depart time.Time, leg TransitLeg) {
	c.cache.Set(transitKey(fromID, toID, mode, depart), leg, 0)
}

// Stats reports cache utilization.
func (c *TransitCache) Stats() Stats {
	return c.cache.Stats()
}

// Close releases the cache's background goroutine.
func (c *TransitCache) Close() {
	c.cache.Close()
}
