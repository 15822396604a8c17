package planner

import (
	"context"
	"errors"
	"time"

	"github.com/shiva/tripweaver/internal/apperr"
	"github.com/shiva/tripweaver/internal/model"
)

// ErrNoFeasiblePlan signals that day 1's first-step rule found no spot that
// can be visited and returned to the hotel within the daily window. Per
// spec.md §4.5 this terminates planning entirely and hands control to
// FallbackPlanner (C7) — it is not a provider error, so it is checked
// separately from apperr.TriggersFallback.
var ErrNoFeasiblePlan = errors.New("planner: no feasible visit fits the first day's window")

// dayLoop implements Phase B of spec.md §4.5. When req.MultiDay is false,
// the single-day convenience variant caps planning to dayIndex == 1
// regardless of req.MaxDays; any spot that doesn't fit is dropped with a
// warning, same as overflowing maxDays in the multi-day case.
func (p *Planner) dayLoop(ctx context.Context, req PlanRequest, hotelCoords model.Coordinates, resolvedIn []model.ResolvedSpot) (*Route, []Warning, error) {
	unvisited := append([]model.ResolvedSpot(nil), resolvedIn...)
	var warnings []Warning
	var days []model.DayPlan

	date := req.Now
	dayIndex := 1

	for len(unvisited) > 0 && dayIndex <= req.MaxDays && (req.MultiDay || dayIndex == 1) {
		if err := ctx.Err(); err != nil {
			return nil, nil, apperr.Wrap(apperr.KindDeadline, "request deadline exceeded during planning", err)
		}

		endOfDay := dateAt(date, req.DailyEndHour, 0)
		var items []model.RouteItem
		var cursorTs time.Time
		currentLocation := hotelCoords
		currentID := hotelID

		if dayIndex == 1 {
			cursorTs = dateAt(date, req.StartHour, req.StartMin)

			first, err := p.selectCandidate(ctx, unvisited, currentID, currentLocation, cursorTs, endOfDay, hotelCoords, req.Mode)
			if err != nil {
				return nil, nil, err
			}
			if first == nil {
				return nil, nil, ErrNoFeasiblePlan
			}

			items = append(items, model.RouteItem{
				Kind:        model.ItemVisit,
				SpotID:      first.spot.ID,
				ArrivalTs:   first.arrival,
				DepartureTs: first.departure,
			})
			unvisited = removeSpot(unvisited, first.spot.ID)
			cursorTs = first.departure
			currentLocation = first.spot.Coords
			currentID = first.spot.ID
		} else {
			cursorTs = dateAt(date, req.DailyStartHour, 0)
			items = append(items, model.RouteItem{Kind: model.ItemAnchor, SpotID: "hotel", ArrivalTs: cursorTs, DepartureTs: cursorTs})
		}

		mealInserted := map[model.MealKind]bool{}

		for {
			if err := ctx.Err(); err != nil {
				return nil, nil, apperr.Wrap(apperr.KindDeadline, "request deadline exceeded during planning", err)
			}

			if req.IncludeBreaks {
				if meal, ok := dueMeal(cursorTs, mealInserted); ok {
					items = append(items, model.RouteItem{
						Kind:        model.ItemMeal,
						MealKind:    meal.kind,
						ArrivalTs:   cursorTs,
						DepartureTs: cursorTs.Add(meal.duration),
					})
					mealInserted[meal.kind] = true
					cursorTs = cursorTs.Add(meal.duration)
					continue
				}
			}

			if len(unvisited) == 0 {
				break
			}

			next, err := p.selectCandidate(ctx, unvisited, currentID, currentLocation, cursorTs, endOfDay, hotelCoords, req.Mode)
			if err != nil {
				return nil, nil, err
			}
			if next == nil {
				break
			}

			items = append(items, model.RouteItem{
				Kind:        model.ItemVisit,
				SpotID:      next.spot.ID,
				ArrivalTs:   next.arrival,
				DepartureTs: next.departure,
			})
			unvisited = removeSpot(unvisited, next.spot.ID)
			cursorTs = next.departure
			currentLocation = next.spot.Coords
			currentID = next.spot.ID
		}

		backLeg, err := p.travel(ctx, currentID, currentLocation, hotelID, hotelCoords, cursorTs, req.Mode)
		if err != nil {
			return nil, nil, err
		}
		arrivalBack := cursorTs
		if !isUnreachable(backLeg) {
			arrivalBack = cursorTs.Add(backLeg.Duration)
		}
		items = append(items, model.RouteItem{Kind: model.ItemAnchor, SpotID: "hotel", ArrivalTs: arrivalBack, DepartureTs: arrivalBack})

		days = append(days, model.DayPlan{DayIndex: dayIndex, Date: date, Items: items})

		date = date.AddDate(0, 0, 1)
		dayIndex++
	}

	for _, u := range unvisited {
		warnings = append(warnings, Warning("spot "+u.ID+" omitted: did not fit within the planning window"))
	}

	return &Route{Days: days}, warnings, nil
}

func removeSpot(spots []model.ResolvedSpot, id string) []model.ResolvedSpot {
	out := make([]model.ResolvedSpot, 0, len(spots))
	for _, s := range spots {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}

type meal struct {
	kind     model.MealKind
	duration time.Duration
}

// dueMeal reports whether cursor falls within an as-yet-uninserted meal
// window for the day.
func dueMeal(cursor time.Time, inserted map[model.MealKind]bool) (meal, bool) {
	hour := cursor.Hour()
	if !inserted[model.MealLunch] && hour >= lunchWindowStartHour && hour < lunchWindowEndHour {
		return meal{kind: model.MealLunch, duration: lunchDuration}, true
	}
	if !inserted[model.MealDinner] && hour >= dinnerWindowStartHour && hour < dinnerWindowEndHour {
		return meal{kind: model.MealDinner, duration: dinnerDuration}, true
	}
	return meal{}, false
}

// selectCandidate evaluates every unvisited spot as a feasible next step
// from (currentID, currentLocation) departing at cursorTs, gathering
// results via a bounded worker pool before applying the deterministic
// tie-break: smallest t1, then smallest t1+visit, then lexicographic id.
func (p *Planner) selectCandidate(ctx context.Context, unvisited []model.ResolvedSpot, currentID string, currentLocation model.Coordinates, cursorTs, endOfDay time.Time, hotelCoords model.Coordinates, mode model.Mode) (*candidate, error) {
	results := probeBounded(unvisited, func(_ int, spot model.ResolvedSpot) candidate {
		outLeg, err := p.travel(ctx, currentID, currentLocation, spot.ID, spot.Coords, cursorTs, mode)
		if err != nil {
			return candidate{spot: spot, err: err}
		}
		if isUnreachable(outLeg) {
			return candidate{spot: spot}
		}

		arrival := cursorTs.Add(outLeg.Duration)
		visitDuration := time.Duration(spot.VisitDurationSec) * time.Second
		departure := arrival.Add(visitDuration)

		backLeg, err := p.travel(ctx, spot.ID, spot.Coords, hotelID, hotelCoords, departure, mode)
		if err != nil {
			return candidate{spot: spot, err: err}
		}
		if isUnreachable(backLeg) {
			return candidate{spot: spot}
		}

		feasible := !departure.Add(backLeg.Duration).After(endOfDay)
		return candidate{
			spot:      spot,
			t1:        outLeg.Duration,
			arrival:   arrival,
			departure: departure,
			t2:        backLeg.Duration,
			distanceM: outLeg.DistanceM,
			feasible:  feasible,
		}
	})

	var best *candidate
	for i := range results {
		r := &results[i]
		if r.err != nil {
			return nil, r.err
		}
		if !r.feasible {
			continue
		}
		if best == nil || isBetterCandidate(*r, *best) {
			best = r
		}
	}
	return best, nil
}

// isBetterCandidate applies spec.md §4.5's tie-break: smallest t1, then
// smallest t1+visitDuration, then lexicographically smallest spot id.
func isBetterCandidate(a, b candidate) bool {
	if a.t1 != b.t1 {
		return a.t1 < b.t1
	}
	aVisit := a.departure.Sub(a.arrival)
	bVisit := b.departure.Sub(b.arrival)
	if a.t1+aVisit != b.t1+bVisit {
		return a.t1+aVisit < b.t1+bVisit
	}
	return a.spot.ID < b.spot.ID
}
