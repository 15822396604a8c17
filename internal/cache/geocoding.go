package cache

import (
	"context"
	"strings"
	"time"

	"github.com/shiva/tripweaver/internal/model"
)

// GeocodingCache caches resolved coordinates keyed by a normalized address
// string, per spec.md's C2 GeocodingCache.
type GeocodingCache struct {
	cache *TTLCache[model.Coordinates]
}

// NewGeocodingCache builds a GeocodingCache with the given capacity, TTL, and
// optional Redis-backed L2 tier (nil disables it).
func NewGeocodingCache(capacity int, ttl time.Duration, l2 Distributed[model.Coordinates]) *GeocodingCache {
	return &GeocodingCache{
		cache: New(Options[model.Coordinates]{
			Capacity:        capacity,
			DefaultTTL:      ttl,
			CleanupInterval: time.Minute,
			Distributed:     l2,
		}),
	}
}

// NormalizeKey lowercases, trims, and collapses whitespace in an address
// hint so that "Red Fort, Delhi" and "red fort,   delhi" share a cache entry.
func NormalizeKey(raw string) string {
	fields := strings.Fields(strings.ToLower(raw))
	return strings.Join(fields, " ")
}

// Get returns the cached coordinates for an address hint, if present.
func (g *GeocodingCache) Get(addressHint string) (model.Coordinates, bool) {
	return g.cache.Get(NormalizeKey(addressHint))
}

// Set stores coordinates resolved for an address hint.
func (g *GeocodingCache) Set(addressHint string, coords model.Coordinates) {
	g.cache.Set(NormalizeKey(addressHint), coords, 0)
}

// Preload resolves and seeds every address in addresses that isn't already
// cached, via geocodeFn. It skips addresses already present (so a Preload
// call never clobbers a fresher entry or burns a provider round-trip on a
// warm cache) and swallows per-address geocoding failures — a landmark
// table with one bad entry shouldn't block the rest from warming.
func (g *GeocodingCache) Preload(ctx context.Context, addresses []string, geocodeFn func(context.Context, string) (model.Coordinates, error)) {
	for _, addr := range addresses {
		if g.Has(addr) {
			continue
		}
		coords, err := geocodeFn(ctx, addr)
		if err != nil {
			continue
		}
		g.Set(addr, coords)
	}
}

// Has reports whether addressHint is present and unexpired, without
// affecting LRU order or hit/miss stats.
func (g *GeocodingCache) Has(addressHint string) bool {
	return g.cache.Has(NormalizeKey(addressHint))
}

// Delete evicts addressHint from the local tier.
func (g *GeocodingCache) Delete(addressHint string) {
	g.cache.Delete(NormalizeKey(addressHint))
}

// Cleanup sweeps expired entries and returns the count removed.
func (g *GeocodingCache) Cleanup() int {
	return g.cache.Cleanup()
}

// Stats reports cache utilization.
func (g *GeocodingCache) Stats() Stats {
	return g.cache.Stats()
}

// Close releases the cache's background goroutine.
func (g *GeocodingCache) Close() {
	g.cache.Close()
}
