// Package fallbackprovider is the deterministic MapProvider (C1) adapter
// wired into the Planner when the real provider is disabled, and used in
// tests. The FallbackPlanner (C7) calls no provider. It never calls out over the
// network, resolving addresses to a stable pseudo-geocode and estimating
// transit time from great-circle distance and a mode-weighted speed.
package fallbackprovider

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/url"
	"strings"
	"time"

	"github.com/shiva/tripweaver/internal/geo"
	"github.com/shiva/tripweaver/internal/model"
)

// Provider is the deterministic MapProvider adapter. Geocode(addressHint) is
// a pure function of addressHint: the same hint always resolves to the same
// coordinates, which is what keeps the Planner's output reproducible
// (spec scenario: repeated calls with the fallback provider yield
// byte-identical itineraries).
type Provider struct {
	// CenterLat/CenterLng anchor the synthetic coordinate space (defaults
	// to New Delhi if zero), so fallback-geocoded points land in a
	// plausible, clustered region rather than scattered across the globe.
	CenterLat, CenterLng float64
}

// New builds a deterministic Provider anchored at the given center point.
func New(centerLat, centerLng float64) *Provider {
	if centerLat == 0 && centerLng == 0 {
		centerLat, centerLng = 28.6139, 77.2090 // New Delhi
	}
	return &Provider{CenterLat: centerLat, CenterLng: centerLng}
}

// Geocode deterministically derives coordinates from an FNV-1a hash of the
// normalized addressHint, placed within roughly 15km of the provider's
// center point. Two independent hashes (the hint as-is, and reversed) seed
// the lat/lng jitter so nearby hints don't collapse onto a shared axis.
func (p *Provider) Geocode(_ context.Context, addressHint string) (model.Coordinates, error) {
	normalized := strings.ToLower(strings.TrimSpace(addressHint))

	latHash := fnv.New32a()
	latHash.Write([]byte(normalized))
	lngHash := fnv.New32a()
	lngHash.Write([]byte(reverse(normalized)))

	latJitter := (float64(latHash.Sum32())/float64(^uint32(0)) - 0.5) * 0.27
	lngJitter := (float64(lngHash.Sum32())/float64(^uint32(0)) - 0.5) * 0.27

	return model.Coordinates{
		Lat: p.CenterLat + latJitter,
		Lng: p.CenterLng + lngJitter,
	}, nil
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// TransitTime estimates duration from the great-circle distance between
// origin and dest divided by the mode's assumed speed; it never fails.
func (p *Provider) TransitTime(_ context.Context, origin, dest model.Coordinates, _ time.Time, mode model.Mode) (time.Duration, float64, error) {
	distanceM := geo.HaversineM(origin, dest)
	minutes := geo.EstimateDurationMinutes(origin, dest, mode)
	return time.Duration(minutes * float64(time.Minute)), distanceM, nil
}

// NavigationLink returns a best-effort deep link; identical shape to the
// real adapter's, since both ultimately point at the same maps application.
func (p *Provider) NavigationLink(origin, dest model.Coordinates, _ time.Time, mode model.Mode) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("origin", fmt.Sprintf("%f,%f", origin.Lat, origin.Lng))
	q.Set("destination", fmt.Sprintf("%f,%f", dest.Lat, dest.Lng))
	q.Set("travelmode", string(mode))
	return "https://www.google.com/maps/dir/?" + q.Encode()
}
