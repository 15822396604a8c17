package planner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shiva/tripweaver/internal/cache"
	"github.com/shiva/tripweaver/internal/mapprovider"
	"github.com/shiva/tripweaver/internal/model"
	"github.com/shiva/tripweaver/internal/monitor"
)

// hotelID is the sentinel spot id used when the hotel is a leg endpoint, so
// TransitCache keys don't collide with a spot that happens to share the
// hotel's address.
const hotelID = "__hotel__"

// Planner implements the greedy time-dependent nearest-neighbor scheduler
// (C5). It is safe for concurrent use across requests; it holds no
// request-scoped state itself (each Plan call threads its own working set).
type Planner struct {
	Provider     mapprovider.Provider
	GeoCache     *cache.GeocodingCache
	TransitCache *cache.TransitCache
	Monitor      *monitor.Monitor
	Logger       *zap.Logger
}

// New builds a Planner over the given MapProvider and caches. mon records
// cache hits/misses, provider calls, and per-phase timings (C8); it must
// not be nil.
func New(provider mapprovider.Provider, geoCache *cache.GeocodingCache, transitCache *cache.TransitCache, mon *monitor.Monitor, logger *zap.Logger) *Planner {
	return &Planner{Provider: provider, GeoCache: geoCache, TransitCache: transitCache, Monitor: mon, Logger: logger}
}

// travel resolves the duration/distance for (fromID → toID) departing at
// depart, consulting the TransitCache before calling the provider.
func (p *Planner) travel(ctx context.Context, fromID string, fromCoords model.Coordinates, toID string, toCoords model.Coordinates, depart time.Time, mode model.Mode) (cache.TransitLeg, error) {
	if leg, ok := p.TransitCache.Get(fromID, toID, mode, depart); ok {
		p.Monitor.RecordCacheHit()
		return leg, nil
	}
	p.Monitor.RecordCacheMiss()

	p.Monitor.RecordProviderCall("transit")
	durationSec, distanceM, err := p.Provider.TransitTime(ctx, fromCoords, toCoords, depart, mode)
	if err != nil {
		return cache.TransitLeg{}, err
	}

	leg := cache.TransitLeg{Duration: durationSec, DistanceM: distanceM}
	p.TransitCache.Set(fromID, toID, mode, depart, leg)
	return leg, nil
}

// candidate is a feasible next-spot option gathered during the inner loop's
// bounded probing, before the deterministic tie-break is applied.
type candidate struct {
	spot      model.ResolvedSpot
	t1        time.Duration // travel time to the candidate
	arrival   time.Time
	departure time.Time
	t2        time.Duration // return-to-hotel travel time from the candidate
	distanceM float64
	feasible  bool
	err       error
}

// Plan runs Phase A (resolution) and Phase B (the day loop) per spec.md
// §4.5, returning the committed Route plus any non-fatal warnings. A
// provider failure that should hand control to the FallbackPlanner (C7) is
// returned as an error classified via apperr.TriggersFallback; the caller
// (internal/service.ItineraryService) is responsible for making that call.
func (p *Planner) Plan(ctx context.Context, req PlanRequest, phaseMillis map[monitor.Phase]int64) (*Route, []Warning, error) {
	geocodeSpan := p.Monitor.Span(phaseMillis, monitor.PhaseGeocode)
	hotelCoords, resolved, warnings, err := p.resolvePhase(ctx, req)
	geocodeSpan()
	if err != nil {
		return nil, nil, err
	}

	pairwiseSpan := p.Monitor.Span(phaseMillis, monitor.PhasePairwise)
	route, dayWarnings, err := p.dayLoop(ctx, req, hotelCoords, resolved)
	pairwiseSpan()
	if err != nil {
		return nil, nil, err
	}
	warnings = append(warnings, dayWarnings...)

	route.SpotCoords = make(map[string]model.Coordinates, len(resolved)+1)
	route.SpotCoords["hotel"] = hotelCoords
	for _, s := range resolved {
		route.SpotCoords[s.ID] = s.Coords
	}

	return route, warnings, nil
}

func isUnreachable(leg cache.TransitLeg) bool {
	return leg.Duration == model.Unreachable
}
