package mapprovider

import (
	"context"
	"testing"
	"time"

	"github.com/shiva/tripweaver/internal/apperr"
	"github.com/shiva/tripweaver/internal/model"
)

type fakeProvider struct {
	geocodeCalls int
	failures     []error // each call pops one; once exhausted, succeeds
}

func (f *fakeProvider) Geocode(ctx context.Context, addressHint string) (model.Coordinates, error) {
	f.geocodeCalls++
	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		return model.Coordinates{}, err
	}
	return model.Coordinates{Lat: 1, Lng: 2}, nil
}

func (f *fakeProvider) TransitTime(ctx context.Context, origin, dest model.Coordinates, departure time.Time, mode model.Mode) (time.Duration, float64, error) {
	return 0, 0, nil
}

func (f *fakeProvider) NavigationLink(origin, dest model.Coordinates, departure time.Time, mode model.Mode) string {
	return "link"
}

func TestWithRetry_RetriesRateLimitUpToThreeTimes(t *testing.T) {
	fake := &fakeProvider{
		failures: []error{
			apperr.New(apperr.KindProviderRateLimit, "throttled"),
			apperr.New(apperr.KindProviderRateLimit, "throttled"),
		},
	}
	p := WithRetry(fake, nil)

	coords, err := p.Geocode(context.Background(), "x")
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if coords.Lat != 1 {
		t.Fatalf("coords = %v, want the success value", coords)
	}
	if fake.geocodeCalls != 3 {
		t.Fatalf("geocodeCalls = %d, want 3 (1 initial + 2 retries)", fake.geocodeCalls)
	}
}

func TestWithRetry_GivesUpAfterThreeRateLimitRetries(t *testing.T) {
	fake := &fakeProvider{
		failures: []error{
			apperr.New(apperr.KindProviderRateLimit, "throttled"),
			apperr.New(apperr.KindProviderRateLimit, "throttled"),
			apperr.New(apperr.KindProviderRateLimit, "throttled"),
			apperr.New(apperr.KindProviderRateLimit, "throttled"),
		},
	}
	p := WithRetry(fake, nil)

	_, err := p.Geocode(context.Background(), "x")
	if !apperr.Is(err, apperr.KindProviderRateLimit) {
		t.Fatalf("expected a ProviderRateLimit error after exhausting retries, got %v", err)
	}
	if fake.geocodeCalls != 4 {
		t.Fatalf("geocodeCalls = %d, want 4 (1 initial + 3 retries)", fake.geocodeCalls)
	}
}

func TestWithRetry_RetriesNetworkOnce(t *testing.T) {
	fake := &fakeProvider{
		failures: []error{apperr.New(apperr.KindProviderNetwork, "timeout")},
	}
	p := WithRetry(fake, nil)

	_, err := p.Geocode(context.Background(), "x")
	if err != nil {
		t.Fatalf("expected success after single network retry, got %v", err)
	}
	if fake.geocodeCalls != 2 {
		t.Fatalf("geocodeCalls = %d, want 2 (1 initial + 1 retry)", fake.geocodeCalls)
	}
}

func TestWithRetry_InvokesOnRetryPerAttempt(t *testing.T) {
	fake := &fakeProvider{
		failures: []error{
			apperr.New(apperr.KindProviderRateLimit, "throttled"),
			apperr.New(apperr.KindProviderRateLimit, "throttled"),
		},
	}
	var retries int
	p := WithRetry(fake, func() { retries++ })

	if _, err := p.Geocode(context.Background(), "x"); err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if retries != 2 {
		t.Fatalf("retries = %d, want 2", retries)
	}
}

func TestWithRetry_DoesNotRetryQuotaOrDenied(t *testing.T) {
	for _, kind := range []apperr.Kind{apperr.KindProviderQuota, apperr.KindProviderDenied} {
		fake := &fakeProvider{failures: []error{apperr.New(kind, "nope")}}
		p := WithRetry(fake, nil)

		_, err := p.Geocode(context.Background(), "x")
		if !apperr.Is(err, kind) {
			t.Fatalf("kind %v: expected unretried error to surface, got %v", kind, err)
		}
		if fake.geocodeCalls != 1 {
			t.Fatalf("kind %v: geocodeCalls = %d, want 1 (no retry)", kind, fake.geocodeCalls)
		}
	}
}
