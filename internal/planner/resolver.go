package planner

import (
	"context"
	"time"

	"github.com/shiva/tripweaver/internal/apperr"
	"github.com/shiva/tripweaver/internal/model"
)

// geocodeWithCache resolves an address hint to coordinates, consulting the
// GeocodingCache before calling the provider and populating it on a miss.
func (p *Planner) geocodeWithCache(ctx context.Context, addressHint string) (model.Coordinates, error) {
	if coords, ok := p.GeoCache.Get(addressHint); ok {
		p.Monitor.RecordCacheHit()
		return coords, nil
	}
	p.Monitor.RecordCacheMiss()

	p.Monitor.RecordProviderCall("geocode")
	coords, err := p.Provider.Geocode(ctx, addressHint)
	if err != nil {
		return model.Coordinates{}, err
	}

	p.GeoCache.Set(addressHint, coords)
	return coords, nil
}

type spotResolution struct {
	resolved model.ResolvedSpot
	warning  Warning
	err      error
}

// resolvePhase is Phase A: geocode the hotel and every spot, attaching
// visitDurationSec. Spots that fail with NotFound are dropped with a
// warning rather than aborting the whole request; any other geocoding
// failure on the hotel or on every spot aborts to fallback.
func (p *Planner) resolvePhase(ctx context.Context, req PlanRequest) (model.Coordinates, []model.ResolvedSpot, []Warning, error) {
	hotelCoords, err := p.geocodeWithCache(ctx, req.Hotel)
	if err != nil {
		return model.Coordinates{}, nil, nil, err
	}

	results := probeBounded(req.Spots, func(_ int, spot model.Spot) spotResolution {
		coords, err := p.geocodeWithCache(ctx, spotAddressHint(spot))
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return spotResolution{warning: Warning("spot " + spot.ID + " could not be geocoded and was dropped")}
			}
			return spotResolution{err: err}
		}

		visitDuration := req.VisitDurationDefault
		if spot.RecommendedDurationMin != nil {
			visitDuration = time.Duration(*spot.RecommendedDurationMin) * time.Minute
		}

		return spotResolution{resolved: model.ResolvedSpot{
			Spot:             spot,
			Coords:           coords,
			VisitDurationSec: int(visitDuration.Seconds()),
		}}
	})

	var resolved []model.ResolvedSpot
	var warnings []Warning
	for _, r := range results {
		switch {
		case r.err != nil:
			return model.Coordinates{}, nil, nil, r.err
		case r.warning != "":
			warnings = append(warnings, r.warning)
		default:
			resolved = append(resolved, r.resolved)
		}
	}

	if len(resolved) < 1 {
		return model.Coordinates{}, nil, nil, apperr.New(apperr.KindNotFound, "no spot could be geocoded")
	}

	return hotelCoords, resolved, warnings, nil
}

func spotAddressHint(spot model.Spot) string {
	if spot.LocationHint != "" {
		return spot.LocationHint
	}
	return spot.Name
}
