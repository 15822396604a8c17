// Package mapprovider defines the MapProvider capability (C1): geocoding and
// time-dependent transit duration lookup, abstracted behind a single
// interface with a real HTTP-backed adapter and a deterministic fallback
// adapter.
package mapprovider

import (
	"context"
	"time"

	"github.com/shiva/tripweaver/internal/model"
)

// Provider abstracts geocoding and transit-time lookup so the planner is
// written against the capability, not against either concrete adapter.
type Provider interface {
	// Geocode resolves a textual address hint to coordinates. Fails with
	// apperr kinds ProviderQuota, ProviderRateLimit, ProviderDenied,
	// ProviderInvalidRequest, ProviderNetwork, or NotFound.
	Geocode(ctx context.Context, addressHint string) (model.Coordinates, error)

	// TransitTime returns the travel duration and distance between two
	// points, departing at the given time, for the given mode. departure
	// is the intended departure instant: schedules are time-of-day
	// sensitive. Same error taxonomy as Geocode.
	TransitTime(ctx context.Context, origin, dest model.Coordinates, departure time.Time, mode model.Mode) (time.Duration, float64, error)

	// NavigationLink returns a deep link into a maps application for the
	// given leg. Pure, no I/O, never errors.
	NavigationLink(origin, dest model.Coordinates, departure time.Time, mode model.Mode) string
}
