package fallbackprovider

import (
	"context"
	"testing"
	"time"

	"github.com/shiva/tripweaver/internal/model"
)

func TestProvider_GeocodeIsDeterministic(t *testing.T) {
	p := New(0, 0)
	ctx := context.Background()

	a, err := p.Geocode(ctx, "Red Fort, Delhi")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	b, err := p.Geocode(ctx, "Red Fort, Delhi")
	if err != nil {
		t.Fatalf("Geocode (repeat): %v", err)
	}
	if a != b {
		t.Fatalf("Geocode not deterministic: %v != %v", a, b)
	}
}

func TestProvider_GeocodeDiffersByHint(t *testing.T) {
	p := New(0, 0)
	ctx := context.Background()

	a, _ := p.Geocode(ctx, "Red Fort, Delhi")
	b, _ := p.Geocode(ctx, "India Gate, Delhi")
	if a == b {
		t.Fatal("expected distinct hints to geocode to distinct coordinates")
	}
}

func TestProvider_TransitTimeNeverFails(t *testing.T) {
	p := New(0, 0)
	ctx := context.Background()

	a := model.Coordinates{Lat: 28.6139, Lng: 77.2090}
	b := model.Coordinates{Lat: 28.6562, Lng: 77.2410}

	d, dist, err := p.TransitTime(ctx, a, b, time.Now(), model.ModeDriving)
	if err != nil {
		t.Fatalf("TransitTime: %v", err)
	}
	if d <= 0 {
		t.Errorf("duration = %v, want > 0", d)
	}
	if dist <= 0 {
		t.Errorf("distance = %v, want > 0", dist)
	}
}

func TestProvider_NavigationLinkIsPure(t *testing.T) {
	p := New(0, 0)
	a := model.Coordinates{Lat: 28.6139, Lng: 77.2090}
	b := model.Coordinates{Lat: 28.6562, Lng: 77.2410}

	l1 := p.NavigationLink(a, b, time.Now(), model.ModeWalking)
	l2 := p.NavigationLink(a, b, time.Now(), model.ModeWalking)
	if l1 != l2 {
		t.Fatalf("NavigationLink not pure: %q != %q", l1, l2)
	}
}
