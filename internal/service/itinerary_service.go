// Package service implements the ItineraryService (C9): the single
// PlanItinerary use case the HTTP layer calls, composing the Planner,
// FallbackPlanner, ScheduleBuilder, and Monitor. Grounded on the teacher's
// BookingService.BookRide ("try primary path, fall back, classify errors,
// record") shape.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shiva/tripweaver/internal/apperr"
	"github.com/shiva/tripweaver/internal/mapprovider"
	"github.com/shiva/tripweaver/internal/model"
	"github.com/shiva/tripweaver/internal/monitor"
	"github.com/shiva/tripweaver/internal/planner"
	"github.com/shiva/tripweaver/internal/schedule"
)

// ItineraryService composes C1-C8 behind the single PlanItinerary entry
// point the HTTP layer calls.
type ItineraryService struct {
	Planner  *planner.Planner
	Fallback *planner.Fallback
	Builder  *schedule.Builder
	Monitor  *monitor.Monitor
	Logger   *zap.Logger
}

// NewItineraryService builds an ItineraryService. provider is accepted but
// not held here: cmd/server/main.go already wires it, with the caches and
// the rate limiter, into plnr (the Planner); ItineraryService only needs
// the use-case-level collaborators.
func NewItineraryService(provider mapprovider.Provider, plnr *planner.Planner, fb *planner.Fallback, builder *schedule.Builder, mon *monitor.Monitor, logger *zap.Logger) *ItineraryService {
	_ = provider // retained in the signature for composition parity; Planner already holds it
	return &ItineraryService{Planner: plnr, Fallback: fb, Builder: builder, Monitor: mon, Logger: logger}
}

const (
	defaultStartTime             = "09:00"
	defaultVisitDurationDefault  = 60
	defaultDailyStartHour        = 9
	defaultDailyEndHour          = 22
	// defaultDailyEndHourSingleDay is spec.md §4.5's single-day convenience
	// default — used instead of defaultDailyEndHour when the caller sets
	// multiDay=false and omits dailyEndHour. Kept distinct from the
	// multi-day default per the §9 note that the difference may be a
	// historical accident worth preserving rather than unifying.
	defaultDailyEndHourSingleDay = 20
	defaultMaxDays               = 7
	defaultDeadlineMs            = 45000
	maxSpots                     = 20
	minVisitDurationMin          = 15
	maxVisitDurationMin          = 480
)

// PlanItinerary validates req, resolves defaults, applies the request-scoped
// deadline, and dispatches to the Planner — falling back to the
// FallbackPlanner when the Planner surfaces a fallback-worthy failure or
// cannot find a feasible first visit.
func (s *ItineraryService) PlanItinerary(ctx context.Context, req model.Request) (*model.Response, error) {
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	defaulted, err := validateAndDefault(req)
	if err != nil {
		s.recordFailure(req.SessionID, err)
		return nil, err
	}

	deadline := time.Duration(defaulted.DeadlineMs) * time.Millisecond
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	planReq, err := toPlanRequest(defaulted, time.Now())
	if err != nil {
		s.recordFailure(req.SessionID, err)
		return nil, err
	}

	// phaseMillis accumulates per-phase timings across this call. Planner.Plan
	// records PhaseGeocode (resolution) and PhasePairwise (the day loop's
	// candidate probing) directly since only it can see that boundary;
	// PhasePlanning here covers the FallbackPlanner's synchronous pass when
	// the Planner hands off, and PhaseBuild covers rendering.
	phaseMillis := map[monitor.Phase]int64{}
	route, warnings, planErr := s.Planner.Plan(ctx, planReq, phaseMillis)

	if planErr != nil {
		if !apperr.TriggersFallback(planErr) && !errors.Is(planErr, planner.ErrNoFeasiblePlan) {
			s.recordFailure(req.SessionID, planErr)
			return nil, planErr
		}
		s.Logger.Warn("planner failed, switching to fallback",
			zap.String("sessionId", req.SessionID), zap.Error(planErr))

		fbSpan := s.Monitor.Span(phaseMillis, monitor.PhasePlanning)
		fbRoute, fbWarnings := s.Fallback.Plan(planReq)
		fbSpan()
		route = fbRoute
		warnings = append(warnings, planner.Warning("planner failed, fallback schedule used: "+planErr.Error()))
		warnings = append(warnings, fbWarnings...)
	}

	buildSpan := s.Monitor.Span(phaseMillis, monitor.PhaseBuild)
	itinerary := s.Builder.Build(route, planReq)
	buildSpan()

	resp := &model.Response{
		Itinerary:    itinerary,
		FallbackUsed: route.FallbackUsed,
		Warnings:     warningStrings(warnings),
	}

	var total int64
	for _, v := range phaseMillis {
		total += v
	}
	s.Monitor.RecordRequest(monitor.RequestTrace{
		SessionID:    req.SessionID,
		At:           time.Now(),
		Success:      true,
		FallbackUsed: route.FallbackUsed,
		PhaseMillis:  phaseMillis,
		TotalMillis:  total,
	})

	return resp, nil
}

func (s *ItineraryService) recordFailure(sessionID string, err error) {
	kind, _ := apperr.KindOf(err)
	s.Monitor.RecordRequest(monitor.RequestTrace{
		SessionID: sessionID,
		At:        time.Now(),
		Success:   false,
		ErrorKind: kind,
	})
}

func warningStrings(warnings []planner.Warning) []string {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]string, len(warnings))
	for i, w := range warnings {
		out[i] = string(w)
	}
	return out
}

// validateAndDefault checks req against spec.md §6's range/shape rules and
// fills in defaults for omitted scalar/string fields. Because model.Request
// has no pointer fields, a zero-valued numeric/string field is
// indistinguishable from one the caller omitted — by design, the zero
// value is treated as "use the default" here (the common JSON
// omitted-means-zero idiom); IncludeBreaks/MultiDay default to true at the
// HTTP handler layer instead, by pre-populating the decode target before
// unmarshaling the request body, since a Go bool can't represent "omitted"
// at all.
func validateAndDefault(req model.Request) (model.Request, error) {
	if req.Hotel == "" {
		return req, apperr.New(apperr.KindValidation, "hotel is required")
	}
	if len(req.Spots) < 1 || len(req.Spots) > maxSpots {
		return req, apperr.New(apperr.KindValidation, "spots must contain between 1 and 20 entries")
	}

	seen := make(map[string]bool, len(req.Spots))
	for _, spot := range req.Spots {
		if spot.ID == "" {
			return req, apperr.New(apperr.KindValidation, "every spot must have a non-empty id")
		}
		if seen[spot.ID] {
			return req, apperr.New(apperr.KindValidation, "duplicate spot id: "+spot.ID)
		}
		seen[spot.ID] = true
		if spot.Name == "" {
			return req, apperr.New(apperr.KindValidation, "spot "+spot.ID+" must have a non-empty name")
		}
		if spot.RecommendedDurationMin != nil {
			if *spot.RecommendedDurationMin < minVisitDurationMin || *spot.RecommendedDurationMin > maxVisitDurationMin {
				return req, apperr.New(apperr.KindValidation, "spot "+spot.ID+" recommendedDurationMin must be in [15,480]")
			}
		}
	}

	if req.Mode == "" {
		req.Mode = model.ModeWalking
	}
	if req.Mode != model.ModeWalking && req.Mode != model.ModeDriving && req.Mode != model.ModeTransit {
		return req, apperr.New(apperr.KindValidation, "mode must be walking, driving, or transit")
	}

	if req.StartTime == "" {
		req.StartTime = defaultStartTime
	}
	if _, err := time.Parse("15:04", req.StartTime); err != nil {
		return req, apperr.New(apperr.KindValidation, "startTime must be HH:MM 24h")
	}

	if req.VisitDurationDefault == 0 {
		req.VisitDurationDefault = defaultVisitDurationDefault
	}
	if req.VisitDurationDefault < minVisitDurationMin || req.VisitDurationDefault > maxVisitDurationMin {
		return req, apperr.New(apperr.KindValidation, "visitDurationDefault must be in [15,480]")
	}

	if req.DailyStartHour == 0 {
		req.DailyStartHour = defaultDailyStartHour
	}
	if req.DailyStartHour < 0 || req.DailyStartHour > 23 {
		return req, apperr.New(apperr.KindValidation, "dailyStartHour must be in [0,23]")
	}

	if req.DailyEndHour == 0 {
		if req.MultiDay {
			req.DailyEndHour = defaultDailyEndHour
		} else {
			req.DailyEndHour = defaultDailyEndHourSingleDay
		}
	}
	if req.DailyEndHour < 1 || req.DailyEndHour > 24 || req.DailyEndHour <= req.DailyStartHour {
		return req, apperr.New(apperr.KindValidation, "dailyEndHour must be in [1,24] and greater than dailyStartHour")
	}

	if req.MaxDays == 0 {
		req.MaxDays = defaultMaxDays
	}
	if req.MaxDays < 1 || req.MaxDays > 14 {
		return req, apperr.New(apperr.KindValidation, "maxDays must be in [1,14]")
	}

	if req.DeadlineMs == 0 {
		req.DeadlineMs = defaultDeadlineMs
	}
	if req.DeadlineMs <= 0 {
		return req, apperr.New(apperr.KindValidation, "deadlineMs must be positive")
	}

	return req, nil
}

// toPlanRequest converts a validated, defaulted model.Request into the
// Planner's internal PlanRequest, anchored at now.
func toPlanRequest(req model.Request, now time.Time) (planner.PlanRequest, error) {
	start, err := time.Parse("15:04", req.StartTime)
	if err != nil {
		return planner.PlanRequest{}, apperr.New(apperr.KindValidation, "startTime must be HH:MM 24h")
	}

	return planner.PlanRequest{
		Hotel:                req.Hotel,
		Spots:                req.Spots,
		Mode:                 req.Mode,
		StartHour:            start.Hour(),
		StartMin:             start.Minute(),
		VisitDurationDefault: time.Duration(req.VisitDurationDefault) * time.Minute,
		IncludeBreaks:        req.IncludeBreaks,
		MultiDay:             req.MultiDay,
		DailyStartHour:       req.DailyStartHour,
		DailyEndHour:         req.DailyEndHour,
		MaxDays:              req.MaxDays,
		Now:                  time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
	}, nil
}
