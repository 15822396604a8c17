// Package ratelimit throttles outbound calls to the external map provider:
// a per-second token bucket plus a fail-fast daily quota counter.
//
// golang.org/x/time/rate models the per-second shape well but has no notion
// of a calendar-day budget, so the daily counter is hand-rolled alongside it.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/shiva/tripweaver/internal/apperr"
)

// Limiter combines a token-bucket limiter with a daily quota that fails fast
// (no waiting) once exhausted.
type Limiter struct {
	bucket *rate.Limiter

	mu         sync.Mutex
	dailyLimit int
	dailyUsed  int
	resetAt    time.Time
}

// New builds a Limiter allowing perSecond requests/second (bursting up to
// perSecond) and perDay requests per UTC calendar day. perDay <= 0 disables
// the daily quota.
func New(perSecond float64, perDay int) *Limiter {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		bucket:     rate.NewLimiter(rate.Limit(perSecond), burst),
		dailyLimit: perDay,
		resetAt:    nextUTCMidnight(time.Now()),
	}
}

func nextUTCMidnight(from time.Time) time.Time {
	u := from.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

// Acquire blocks until the per-second bucket admits the call, then fails
// fast with a KindProviderQuota error if the daily quota is exhausted.
// Order matters: the daily check happens after the per-second wait so a
// caller already queued on the bucket still gets a prompt quota verdict.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.bucket.Wait(ctx); err != nil {
		return apperr.Wrap(apperr.KindProviderNetwork, "rate limiter wait interrupted", err)
	}
	return l.consumeDaily()
}

func (l *Limiter) consumeDaily() error {
	if l.dailyLimit <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if !now.Before(l.resetAt) {
		l.dailyUsed = 0
		l.resetAt = nextUTCMidnight(now)
	}

	if l.dailyUsed >= l.dailyLimit {
		return apperr.New(apperr.KindProviderQuota, "daily map provider quota exhausted").
			WithDetails(map[string]any{"dailyLimit": l.dailyLimit, "resetAt": l.resetAt})
	}

	l.dailyUsed++
	return nil
}

// DailyRemaining reports how many daily-quota calls remain, for monitoring.
func (l *Limiter) DailyRemaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.dailyLimit <= 0 {
		return -1
	}
	if !time.Now().Before(l.resetAt) {
		return l.dailyLimit
	}
	remaining := l.dailyLimit - l.dailyUsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}
