package mapprovider

import (
	"context"
	"time"

	"github.com/shiva/tripweaver/internal/apperr"
	"github.com/shiva/tripweaver/internal/model"
)

// rateLimitBackoff is the exponential backoff schedule for ProviderRateLimit
// retries: 250ms, 500ms, 1s, capped at 3 attempts.
var rateLimitBackoff = []time.Duration{250 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second}

// WithRetry decorates a Provider so that ProviderRateLimit failures are
// retried up to 3 times with exponential backoff and ProviderNetwork
// failures are retried once. Every other error kind, including
// ProviderQuota and ProviderDenied, passes through unretried. onRetry, if
// non-nil, is called once per retry attempt — wire in Monitor.RecordRetry
// to surface retry counts on C8's report (nil is fine for tests that don't
// care).
func WithRetry(inner Provider, onRetry func()) Provider {
	return &retrying{inner: inner, onRetry: onRetry}
}

type retrying struct {
	inner   Provider
	onRetry func()
}

func (r *retrying) Geocode(ctx context.Context, addressHint string) (model.Coordinates, error) {
	var coords model.Coordinates
	err := retryLoop(ctx, r.onRetry, func() error {
		var e error
		coords, e = r.inner.Geocode(ctx, addressHint)
		return e
	})
	return coords, err
}

func (r *retrying) TransitTime(ctx context.Context, origin, dest model.Coordinates, departure time.Time, mode model.Mode) (time.Duration, float64, error) {
	var dur time.Duration
	var dist float64
	err := retryLoop(ctx, r.onRetry, func() error {
		var e error
		dur, dist, e = r.inner.TransitTime(ctx, origin, dest, departure, mode)
		return e
	})
	return dur, dist, err
}

func (r *retrying) NavigationLink(origin, dest model.Coordinates, departure time.Time, mode model.Mode) string {
	return r.inner.NavigationLink(origin, dest, departure, mode)
}

// retryLoop runs op, retrying per the schedule for ProviderRateLimit
// (up to 3 attempts) and ProviderNetwork (1 retry), honoring ctx
// cancellation between attempts and invoking onRetry (if non-nil) once per
// attempt made beyond the first.
func retryLoop(ctx context.Context, onRetry func(), op func() error) error {
	err := op()
	if err == nil {
		return nil
	}

	switch {
	case apperr.Is(err, apperr.KindProviderRateLimit):
		for _, delay := range rateLimitBackoff {
			if sleepErr := sleep(ctx, delay); sleepErr != nil {
				return sleepErr
			}
			if onRetry != nil {
				onRetry()
			}
			err = op()
			if err == nil {
				return nil
			}
			if !apperr.Is(err, apperr.KindProviderRateLimit) {
				return err
			}
		}
		return err

	case apperr.Is(err, apperr.KindProviderNetwork):
		if sleepErr := sleep(ctx, 0); sleepErr != nil {
			return sleepErr
		}
		if onRetry != nil {
			onRetry()
		}
		return op()

	default:
		return err
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
