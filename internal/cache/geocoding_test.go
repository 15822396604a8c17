package cache

import (
	"context"
	"testing"
	"time"

	"github.com/shiva/tripweaver/internal/apperr"
	"github.com/shiva/tripweaver/internal/model"
)

func TestNormalizeKey(t *testing.T) {
	cases := map[string]string{
		"Red Fort, Delhi":     "red fort, delhi",
		"  red   fort ,delhi": "red fort ,delhi",
		"RED FORT":            "red fort",
	}
	for in, want := range cases {
		if got := NormalizeKey(in); got != want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGeocodingCache_SetGetNormalizes(t *testing.T) {
	g := NewGeocodingCache(10, time.Hour, nil)
	defer g.Close()

	want := model.Coordinates{Lat: 28.6562, Lng: 77.2410}
	g.Set("Red Fort, Delhi", want)

	got, ok := g.Get("  RED   FORT, DELHI  ")
	if !ok || got != want {
		t.Fatalf("Get(variant casing) = %v, %v; want %v, true", got, ok, want)
	}
}

func TestGeocodingCache_Preload(t *testing.T) {
	g := NewGeocodingCache(10, time.Hour, nil)
	defer g.Close()

	want := model.Coordinates{Lat: 28.6129, Lng: 77.2295}
	g.Preload(context.Background(), []string{"India Gate"}, func(_ context.Context, addr string) (model.Coordinates, error) {
		if addr != "India Gate" {
			t.Fatalf("geocodeFn called with %q, want India Gate", addr)
		}
		return want, nil
	})

	if got, ok := g.Get("india gate"); !ok || got != want {
		t.Fatalf("Get(preloaded) = %v, %v; want %v, true", got, ok, want)
	}
}

func TestGeocodingCache_PreloadSkipsAlreadyPresentKeys(t *testing.T) {
	g := NewGeocodingCache(10, time.Hour, nil)
	defer g.Close()

	existing := model.Coordinates{Lat: 1, Lng: 2}
	g.Set("India Gate", existing)

	var calls int
	g.Preload(context.Background(), []string{"India Gate"}, func(_ context.Context, addr string) (model.Coordinates, error) {
		calls++
		return model.Coordinates{Lat: 99, Lng: 99}, nil
	})

	if calls != 0 {
		t.Fatalf("geocodeFn called %d times, want 0 (key already present)", calls)
	}
	if got, _ := g.Get("india gate"); got != existing {
		t.Fatalf("Get(india gate) = %v, want untouched existing value %v", got, existing)
	}
}

func TestGeocodingCache_PreloadSwallowsPerAddressFailures(t *testing.T) {
	g := NewGeocodingCache(10, time.Hour, nil)
	defer g.Close()

	g.Preload(context.Background(), []string{"Bad Address", "India Gate"}, func(_ context.Context, addr string) (model.Coordinates, error) {
		if addr == "Bad Address" {
			return model.Coordinates{}, apperr.New(apperr.KindNotFound, "no such place")
		}
		return model.Coordinates{Lat: 28.6129, Lng: 77.2295}, nil
	})

	if g.Has("Bad Address") {
		t.Error("Has(Bad Address) = true, want false after a swallowed failure")
	}
	if !g.Has("India Gate") {
		t.Error("Has(India Gate) = false, want true")
	}
}
