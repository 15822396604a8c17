// Package schedule implements the ScheduleBuilder (C6): it converts the
// Planner's tagged Route into the caller-facing Itinerary data model,
// rendering durations, inter-item travel, navigation links, and day
// headers.
package schedule

import (
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/shiva/tripweaver/internal/mapprovider"
	"github.com/shiva/tripweaver/internal/model"
	"github.com/shiva/tripweaver/internal/planner"
)

// Builder renders a committed Route into an Itinerary. It calls the same
// MapProvider used for planning to produce navigation links, so links stay
// consistent with the mode/departure that produced the committed leg.
type Builder struct {
	Provider mapprovider.Provider
}

// New builds a ScheduleBuilder over the given MapProvider.
func New(provider mapprovider.Provider) *Builder {
	return &Builder{Provider: provider}
}

// Build renders route (produced by either Planner or FallbackPlanner) into
// the external Itinerary, using req for the mode and the title/hotel
// context that isn't carried on Route itself.
func (b *Builder) Build(route *planner.Route, req planner.PlanRequest) *model.Itinerary {
	itin := &model.Itinerary{
		Title:        fmt.Sprintf("Itinerary — %s", req.Hotel),
		FallbackUsed: route.FallbackUsed,
	}

	var totalTravelMin int
	var elapsedMin int

	for _, day := range route.Days {
		view := model.DayView{
			DayIndex: day.DayIndex,
			Date:     day.Date.Format("2006-01-02"),
			Header:   fmt.Sprintf("**Day %d**", day.DayIndex),
		}

		currentLocationID := "hotel"
		for i, item := range day.Items {
			if item.Kind != model.ItemMeal {
				currentLocationID = item.SpotID
			}

			iv := model.ItemView{
				Kind:        item.Kind,
				SpotID:      item.SpotID,
				MealKind:    item.MealKind,
				ArrivalTs:   item.ArrivalTs.Unix(),
				DepartureTs: item.DepartureTs.Unix(),
				DurationMin: roundMinutes(item.DepartureTs.Sub(item.ArrivalTs)),
			}

			if i > 0 {
				prev := day.Items[i-1]
				gap := item.ArrivalTs.Sub(prev.DepartureTs)
				if gap > 0 {
					iv.TravelFromPrev = renderDuration(gap)
					totalTravelMin += roundMinutes(gap)
				}
			}

			if i < len(day.Items)-1 {
				originID := currentLocationID
				if destID, destItem, ok := nextDistinctLocation(day.Items, i, originID); ok {
					iv.NavigationURL = b.navigationLink(route, req, originID, destID, destItem.ArrivalTs)
				}
			}

			view.Items = append(view.Items, iv)
		}

		if len(day.Items) > 0 {
			first := day.Items[0]
			last := day.Items[len(day.Items)-1]
			elapsedMin += roundMinutes(last.ArrivalTs.Sub(first.ArrivalTs))
		}

		itin.Days = append(itin.Days, view)
	}

	itin.TotalTravelTimeMin = totalTravelMin
	itin.TotalDurationMin = elapsedMin

	return itin
}

// nextDistinctLocation finds the next item after index i (within the same
// day) that is not a meal break and whose location differs from originID —
// "the next non-meal, non-same-location item" per spec.md §4.6.
func nextDistinctLocation(items []model.RouteItem, i int, originID string) (string, model.RouteItem, bool) {
	for j := i + 1; j < len(items); j++ {
		if items[j].Kind == model.ItemMeal {
			continue
		}
		if items[j].SpotID == originID {
			continue
		}
		return items[j].SpotID, items[j], true
	}
	return "", model.RouteItem{}, false
}

// navigationLink builds a deep link from originID to destID. When the
// route carries resolved coordinates for both ends (the Planner's path),
// it calls the MapProvider for a mode/departure-consistent link; otherwise
// (FallbackPlanner never geocodes) it degrades to a text-search link built
// directly from the spots' address hints.
func (b *Builder) navigationLink(route *planner.Route, req planner.PlanRequest, originID, destID string, departure time.Time) string {
	if route.SpotCoords != nil {
		originCoords, originOK := route.SpotCoords[originID]
		destCoords, destOK := route.SpotCoords[destID]
		if originOK && destOK {
			return b.Provider.NavigationLink(originCoords, destCoords, departure, req.Mode)
		}
	}
	return textSearchLink(spotAddressHint(req, originID), spotAddressHint(req, destID))
}

func spotAddressHint(req planner.PlanRequest, spotID string) string {
	if spotID == "hotel" {
		return req.Hotel
	}
	for _, s := range req.Spots {
		if s.ID == spotID {
			if s.LocationHint != "" {
				return s.LocationHint
			}
			return s.Name
		}
	}
	return spotID
}

func textSearchLink(origin, dest string) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("origin", origin)
	q.Set("destination", dest)
	return "https://www.google.com/maps/dir/?" + q.Encode()
}

// roundMinutes rounds d to the nearest minute, half away from zero
// ("round-half-up" for the non-negative durations ScheduleBuilder renders).
func roundMinutes(d time.Duration) int {
	return int(math.Round(float64(d) / float64(time.Minute)))
}

// renderDuration renders a positive duration as "Hh Mm" or, when under an
// hour, just "Mm".
func renderDuration(d time.Duration) string {
	totalMin := roundMinutes(d)
	hours := totalMin / 60
	mins := totalMin % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}
