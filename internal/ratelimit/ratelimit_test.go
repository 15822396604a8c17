package ratelimit

import (
	"context"
	"testing"

	"github.com/shiva/tripweaver/internal/apperr"
)

func TestLimiter_AcquireUnderQuota(t *testing.T) {
	l := New(100, 5)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := l.Acquire(ctx); err != nil {
			t.Fatalf("Acquire() call %d: unexpected error %v", i, err)
		}
	}
}

func TestLimiter_FailsFastOnDailyExhaustion(t *testing.T) {
	l := New(100, 2)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("first Acquire: unexpected error %v", err)
	}
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("second Acquire: unexpected error %v", err)
	}

	err := l.Acquire(ctx)
	if err == nil {
		t.Fatal("third Acquire: expected quota error, got nil")
	}
	if !apperr.Is(err, apperr.KindProviderQuota) {
		t.Fatalf("third Acquire error kind = %v, want KindProviderQuota", err)
	}
}

func TestLimiter_NoDailyLimitDisablesQuota(t *testing.T) {
	l := New(1000, 0)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		if err := l.Acquire(ctx); err != nil {
			t.Fatalf("Acquire() call %d: unexpected error %v", i, err)
		}
	}
	if got := l.DailyRemaining(); got != -1 {
		t.Errorf("DailyRemaining() = %d, want -1 (unlimited)", got)
	}
}

func TestLimiter_DailyRemaining(t *testing.T) {
	l := New(100, 3)
	ctx := context.Background()

	if got := l.DailyRemaining(); got != 3 {
		t.Fatalf("DailyRemaining() initial = %d, want 3", got)
	}
	_ = l.Acquire(ctx)
	if got := l.DailyRemaining(); got != 2 {
		t.Fatalf("DailyRemaining() after 1 use = %d, want 2", got)
	}
}
