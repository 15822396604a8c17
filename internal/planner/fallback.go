package planner

import (
	"time"

	"github.com/shiva/tripweaver/internal/model"
)

// fallbackLegEstimate is the fixed mode-weighted transit estimate
// FallbackPlanner inserts between consecutive spots, per spec.md §4.7.
var fallbackLegEstimate = map[model.Mode]time.Duration{
	model.ModeWalking: 15 * time.Minute,
	model.ModeDriving: 10 * time.Minute,
	model.ModeTransit: 20 * time.Minute,
}

// Fallback is the FallbackPlanner (C7): it emits a valid, unoptimized
// schedule from input order when the Planner cannot proceed (an
// unrecoverable MapProvider failure, or no day-1 candidate fitting the
// window). It is guaranteed to succeed unless spots is empty and never
// calls out over the network.
type Fallback struct{}

// NewFallback builds a FallbackPlanner.
func NewFallback() *Fallback { return &Fallback{} }

// Plan assigns each spot visitDurationDefault (or its own recommended
// duration) in input order, separated by a fixed mode-weighted transit
// estimate, rolling over to a new day when a spot would not fit (when
// req.MultiDay is set) and otherwise truncating with a warning.
func (f *Fallback) Plan(req PlanRequest) (*Route, []Warning) {
	if len(req.Spots) == 0 {
		return &Route{FallbackUsed: true}, nil
	}

	legEstimate := fallbackLegEstimate[req.Mode]
	if legEstimate == 0 {
		legEstimate = fallbackLegEstimate[model.ModeWalking]
	}

	var warnings []Warning
	var days []model.DayPlan

	date := req.Now
	dayIndex := 1
	cursorTs := dateAt(date, req.StartHour, req.StartMin)
	endOfDay := dateAt(date, req.DailyEndHour, 0)

	var items []model.RouteItem
	placed := false

	flushDay := func() {
		if len(items) > 0 {
			items = append(items, model.RouteItem{Kind: model.ItemAnchor, SpotID: "hotel", ArrivalTs: cursorTs, DepartureTs: cursorTs})
			days = append(days, model.DayPlan{DayIndex: dayIndex, Date: date, Items: items})
		}
		items = nil
	}

	for i, spot := range req.Spots {
		visitDuration := req.VisitDurationDefault
		if spot.RecommendedDurationMin != nil {
			visitDuration = time.Duration(*spot.RecommendedDurationMin) * time.Minute
		}

		if i > 0 {
			cursorTs = cursorTs.Add(legEstimate)
		}
		departure := cursorTs.Add(visitDuration)

		if departure.After(endOfDay) {
			if !req.MultiDay || dayIndex >= req.MaxDays {
				for _, remaining := range req.Spots[i:] {
					warnings = append(warnings, Warning("spot "+remaining.ID+" omitted: does not fit within the fallback schedule"))
				}
				break
			}
			flushDay()
			date = date.AddDate(0, 0, 1)
			dayIndex++
			cursorTs = dateAt(date, req.DailyStartHour, 0)
			items = append(items, model.RouteItem{Kind: model.ItemAnchor, SpotID: "hotel", ArrivalTs: cursorTs, DepartureTs: cursorTs})
			endOfDay = dateAt(date, req.DailyEndHour, 0)
			departure = cursorTs.Add(visitDuration)
		}

		items = append(items, model.RouteItem{
			Kind:        model.ItemVisit,
			SpotID:      spot.ID,
			ArrivalTs:   cursorTs,
			DepartureTs: departure,
		})
		cursorTs = departure
		placed = true
	}

	flushDay()

	if !placed {
		warnings = append(warnings, Warning("no spot could be placed within the fallback schedule"))
	}

	return &Route{Days: days, FallbackUsed: true}, warnings
}
