package planner

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/shiva/tripweaver/internal/apperr"
	"github.com/shiva/tripweaver/internal/cache"
	"github.com/shiva/tripweaver/internal/mapprovider/fallbackprovider"
	"github.com/shiva/tripweaver/internal/model"
	"github.com/shiva/tripweaver/internal/monitor"
)

// TestScenario_S1_SingleDayThreeSpotsWalking exercises spec scenario S1:
// day 1 opens directly at the nearest spot (no leading Anchor), a lunch
// break is inserted exactly once when the cursor enters [12,14), and the
// day closes with Anchor(hotel).
func TestScenario_S1_SingleDayThreeSpotsWalking(t *testing.T) {
	p := testPlanner()
	req := baseRequest([]model.Spot{
		spot("A", "Central Park, NY"),
		spot("B", "Met Museum, NY"),
		spot("C", "Statue of Liberty, NY"),
	})

	route, _, err := plan(p, context.Background(), req)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(route.Days) != 1 {
		t.Fatalf("len(Days) = %d, want 1", len(route.Days))
	}
	items := route.Days[0].Items

	if items[0].Kind != model.ItemVisit {
		t.Fatalf("items[0].Kind = %v, want Visit", items[0].Kind)
	}

	var visits, lunches int
	for _, it := range items {
		switch it.Kind {
		case model.ItemVisit:
			visits++
			if got := it.DepartureTs.Sub(it.ArrivalTs); got != 60*time.Minute {
				t.Errorf("visit %s duration = %v, want 60m", it.SpotID, got)
			}
		case model.ItemMeal:
			if it.MealKind == model.MealLunch {
				lunches++
				if got := it.DepartureTs.Sub(it.ArrivalTs); got != lunchDuration {
					t.Errorf("lunch duration = %v, want %v", got, lunchDuration)
				}
			}
		}
	}
	if visits != 3 {
		t.Errorf("visits = %d, want 3", visits)
	}
	if lunches != 1 {
		t.Errorf("lunches = %d, want 1", lunches)
	}
	if items[len(items)-1].Kind != model.ItemAnchor {
		t.Errorf("last item = %v, want Anchor", items[len(items)-1].Kind)
	}
}

// TestScenario_S2_MultiDaySixSpots exercises spec scenario S2: six spots
// whose cumulative visit+travel exceeds one day's window must spill into
// >= 2 DayPlans, each within its window, with no spot repeated.
func TestScenario_S2_MultiDaySixSpots(t *testing.T) {
	p := testPlanner()
	req := baseRequest([]model.Spot{
		spot("A", "Spot A, NY"),
		spot("B", "Spot B, NY"),
		spot("C", "Spot C, NY"),
		spot("D", "Spot D, NY"),
		spot("E", "Spot E, NY"),
		spot("F", "Spot F, NY"),
	})
	req.VisitDurationDefault = 3 * time.Hour
	req.MultiDay = true
	req.MaxDays = 10
	req.DailyStartHour = 9
	req.DailyEndHour = 20

	route, _, err := plan(p, context.Background(), req)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(route.Days) < 2 {
		t.Fatalf("len(Days) = %d, want >= 2", len(route.Days))
	}

	seen := map[string]bool{}
	for _, day := range route.Days {
		endOfDay := dateAt(day.Date, req.DailyEndHour, 0)
		for _, item := range day.Items {
			if item.DepartureTs.After(endOfDay) {
				t.Errorf("day %d item %s departs at %v, after window end %v", day.DayIndex, item.SpotID, item.DepartureTs, endOfDay)
			}
			if item.Kind == model.ItemVisit {
				if seen[item.SpotID] {
					t.Errorf("spot %s scheduled more than once", item.SpotID)
				}
				seen[item.SpotID] = true
			}
		}
	}
}

// TestScenario_S3_RecommendedDurationPreservation exercises spec scenario
// S3: a spot's recommendedDurationMin overrides visitDurationDefault.
func TestScenario_S3_RecommendedDurationPreservation(t *testing.T) {
	p := testPlanner()
	minutes := 180
	x := spot("X", "Spot X, NY")
	x.RecommendedDurationMin = &minutes
	y := spot("Y", "Spot Y, NY")

	req := baseRequest([]model.Spot{x, y})
	req.VisitDurationDefault = 45 * time.Minute
	// Walking from the hotel, X's 180m visit does not fit after Y on day 1;
	// a second day gives it room.
	req.MultiDay = true
	req.MaxDays = 3

	route, _, err := plan(p, context.Background(), req)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	durations := map[string]time.Duration{}
	for _, day := range route.Days {
		for _, item := range day.Items {
			if item.Kind == model.ItemVisit {
				durations[item.SpotID] = item.DepartureTs.Sub(item.ArrivalTs)
			}
		}
	}
	if got := durations["X"]; got != 180*time.Minute {
		t.Errorf("X duration = %v, want 180m", got)
	}
	if got := durations["Y"]; got != 45*time.Minute {
		t.Errorf("Y duration = %v, want 45m", got)
	}
}

// fakeQuotaProvider fails every call with ProviderQuota, modeling spec
// scenario S4's "real adapter fails on the first call" condition.
type fakeQuotaProvider struct{}

func (fakeQuotaProvider) Geocode(context.Context, string) (model.Coordinates, error) {
	return model.Coordinates{}, apperr.New(apperr.KindProviderQuota, "quota exhausted")
}

func (fakeQuotaProvider) TransitTime(context.Context, model.Coordinates, model.Coordinates, time.Time, model.Mode) (time.Duration, float64, error) {
	return 0, 0, apperr.New(apperr.KindProviderQuota, "quota exhausted")
}

func (fakeQuotaProvider) NavigationLink(model.Coordinates, model.Coordinates, time.Time, model.Mode) string {
	return ""
}

// TestScenario_S4_ProviderQuotaTriggersFallback exercises spec scenario
// S4: when the real adapter fails with ProviderQuota, the Planner surfaces
// an error that apperr.TriggersFallback classifies as fallback-worthy, and
// FallbackPlanner then schedules every input spot.
func TestScenario_S4_ProviderQuotaTriggersFallback(t *testing.T) {
	geoCache := cache.NewGeocodingCache(1000, time.Hour, nil)
	transitCache := cache.NewTransitCache(1000, time.Hour, nil)
	p := New(fakeQuotaProvider{}, geoCache, transitCache, monitor.New(10), zap.NewNop())

	spots := []model.Spot{
		spot("A", "Spot A"),
		spot("B", "Spot B"),
		spot("C", "Spot C"),
	}
	req := baseRequest(spots)

	_, _, err := plan(p, context.Background(), req)
	if err == nil {
		t.Fatal("expected an error from the quota-failing provider")
	}
	if !apperr.TriggersFallback(err) {
		t.Fatalf("apperr.TriggersFallback(%v) = false, want true", err)
	}

	fb := NewFallback()
	route, warnings := fb.Plan(req)
	if !route.FallbackUsed {
		t.Error("FallbackUsed = false, want true")
	}

	var visited []string
	for _, day := range route.Days {
		for _, item := range day.Items {
			if item.Kind == model.ItemVisit {
				visited = append(visited, item.SpotID)
			}
		}
	}
	if len(visited) != len(spots) {
		t.Errorf("visited = %v, want all %d input spots scheduled", visited, len(spots))
	}
	_ = warnings
}

// TestScenario_S5_MealBreakIdempotence exercises spec scenario S5: two
// identical requests under the deterministic provider produce identical
// plans, each with exactly one lunch and at most one dinner per day.
func TestScenario_S5_MealBreakIdempotence(t *testing.T) {
	req := baseRequest([]model.Spot{
		spot("A", "Central Park, NY"),
		spot("B", "Met Museum, NY"),
		spot("C", "Statue of Liberty, NY"),
	})
	req.MultiDay = true
	req.MaxDays = 3
	req.DailyEndHour = 22

	p1 := testPlanner()
	p2 := testPlanner()

	r1, _, err := plan(p1, context.Background(), req)
	if err != nil {
		t.Fatalf("Plan (1): %v", err)
	}
	r2, _, err := plan(p2, context.Background(), req)
	if err != nil {
		t.Fatalf("Plan (2): %v", err)
	}

	for _, route := range []*Route{r1, r2} {
		for _, day := range route.Days {
			counts := map[model.MealKind]int{}
			for _, item := range day.Items {
				if item.Kind == model.ItemMeal {
					counts[item.MealKind]++
				}
			}
			if counts[model.MealLunch] != 1 {
				t.Errorf("day %d lunches = %d, want exactly 1", day.DayIndex, counts[model.MealLunch])
			}
			if counts[model.MealDinner] > 1 {
				t.Errorf("day %d dinners = %d, want at most 1", day.DayIndex, counts[model.MealDinner])
			}
		}
	}

	if len(r1.Days) != len(r2.Days) {
		t.Fatalf("day count differs: %d vs %d", len(r1.Days), len(r2.Days))
	}
	for d := range r1.Days {
		if len(r1.Days[d].Items) != len(r2.Days[d].Items) {
			t.Fatalf("day %d item count differs", d)
		}
		for i := range r1.Days[d].Items {
			a, b := r1.Days[d].Items[i], r2.Days[d].Items[i]
			if a.Kind != b.Kind || a.SpotID != b.SpotID || a.MealKind != b.MealKind || !a.ArrivalTs.Equal(b.ArrivalTs) {
				t.Fatalf("day %d item %d differs: %+v vs %+v", d, i, a, b)
			}
		}
	}
}

// TestScenario_S6_UnreachableSpotIsOmittedWithWarning exercises spec
// scenario S6 at the cache layer: the middle spot's legs are pre-seeded in
// the TransitCache as Unreachable so the planner's feasibility test can
// never select it; the two other spots are both scheduled and a warning
// explains the omission.
func TestScenario_S6_UnreachableSpotIsOmittedWithWarning(t *testing.T) {
	geoCache := cache.NewGeocodingCache(1000, time.Hour, nil)
	// Large enough to hold all 1728 seeded legs without LRU eviction.
	transitCache := cache.NewTransitCache(10000, time.Hour, nil)
	fp := fallbackprovider.New(0, 0)
	p := New(fp, geoCache, transitCache, monitor.New(10), zap.NewNop())

	req := baseRequest([]model.Spot{
		spot("A", "Central Park, NY"),
		spot("B", "Met Museum, NY"),
		spot("C", "Statue of Liberty, NY"),
	})
	req.MultiDay = true
	req.MaxDays = 1 // B can never be scheduled, so it must be dropped rather than roll over

	hotelCoords, _ := fp.Geocode(context.Background(), req.Hotel)
	aCoords, _ := fp.Geocode(context.Background(), "Central Park, NY")
	bCoords, _ := fp.Geocode(context.Background(), "Met Museum, NY")
	cCoords, _ := fp.Geocode(context.Background(), "Statue of Liberty, NY")

	seedUnreachable := func(fromID string, fromCoords model.Coordinates, toID string, toCoords model.Coordinates) {
		leg := cache.TransitLeg{Duration: model.Unreachable}
		start := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
		for depart := start; depart.Before(start.AddDate(0, 0, 1)); depart = depart.Add(5 * time.Minute) {
			transitCache.Set(fromID, toID, req.Mode, depart, leg)
			transitCache.Set(toID, fromID, req.Mode, depart, leg)
		}
		_ = fromCoords
		_ = toCoords
	}
	seedUnreachable("__hotel__", hotelCoords, "B", bCoords)
	seedUnreachable("A", aCoords, "B", bCoords)
	seedUnreachable("C", cCoords, "B", bCoords)

	route, warnings, err := plan(p, context.Background(), req)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	var visited []string
	for _, day := range route.Days {
		for _, item := range day.Items {
			if item.Kind == model.ItemVisit {
				visited = append(visited, item.SpotID)
			}
		}
	}
	if len(visited) != 2 {
		t.Fatalf("visited = %v, want exactly 2 spots scheduled", visited)
	}
	for _, id := range visited {
		if id == "B" {
			t.Error("spot B was scheduled despite being unreachable on every leg")
		}
	}
	if len(warnings) == 0 {
		t.Error("expected a warning explaining why spot B was omitted")
	}
}
