// Package planner implements the Planner (C5) greedy time-dependent
// nearest-neighbor scheduler and the FallbackPlanner (C7).
package planner

import (
	"time"

	"github.com/shiva/tripweaver/internal/model"
)

// Warning is a non-fatal planning note surfaced to the caller (e.g. a spot
// dropped for being unreachable, or spots omitted past maxDays).
type Warning string

// Route is the committed, day-by-day schedule the Planner or FallbackPlanner
// produces. ScheduleBuilder (internal/schedule) renders it into the
// caller-facing Itinerary.
type Route struct {
	Days         []model.DayPlan
	FallbackUsed bool

	// SpotCoords maps every spot id appearing in Days (plus "hotel", the
	// Anchor items' SpotID, for the hotel) to its resolved coordinates, so ScheduleBuilder can render
	// navigation links without re-geocoding. FallbackPlanner leaves this nil
	// since it never geocodes; ScheduleBuilder falls back to address-based
	// links in that case.
	SpotCoords map[string]model.Coordinates
}

// PlanRequest is the internal, fully-defaulted form of the wire-level
// Request (see model.Request and internal/service's validation/defaulting).
type PlanRequest struct {
	Hotel                string
	Spots                []model.Spot
	Mode                 model.Mode
	StartHour, StartMin  int
	VisitDurationDefault time.Duration
	IncludeBreaks        bool
	MultiDay             bool
	DailyStartHour       int
	DailyEndHour         int
	MaxDays              int
	Now                  time.Time // the "today" anchor; injected so tests are deterministic
}

const (
	lunchWindowStartHour = 12
	lunchWindowEndHour   = 14
	lunchDuration        = 60 * time.Minute

	dinnerWindowStartHour = 17
	dinnerWindowEndHour   = 19
	dinnerDuration        = 90 * time.Minute
)

func dateAt(date time.Time, hour, min int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, min, 0, 0, date.Location())
}
