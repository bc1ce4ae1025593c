package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{})
	if rl.config.Rate != 10 || rl.config.Burst != 1 || rl.config.MaxWait != time.Second {
		t.Errorf("config = %+v", rl.config)
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 2})

	if !rl.Allow() || !rl.Allow() {
		t.Fatal("burst not allowed")
	}
	if rl.Allow() {
		t.Error("Allow() = true after burst exhausted")
	}

	rl.Reset()
	if !rl.Allow() {
		t.Error("Allow() = false after Reset")
	}
}

func TestRateLimiter_Execute(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 1})

	calls := 0
	op := func(context.Context) error { calls++; return nil }

	if err := rl.Execute(context.Background(), op); err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	if err := rl.Execute(context.Background(), op); !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("second Execute() error = %v, want ErrRateLimitExceeded", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRateLimiter_Wait(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 100, Burst: 1, WaitOnLimit: true})

	start := time.Now()
	for range 3 {
		if err := rl.Execute(context.Background(), succeeding); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("three calls at 100/s took %v, want >= 15ms", elapsed)
	}
}

func TestRateLimiter_WaitExceedsMaxWait(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.01, Burst: 1, MaxWait: 10 * time.Millisecond})
	_ = rl.Allow()

	if err := rl.Wait(context.Background()); !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("Wait() error = %v, want ErrRateLimitExceeded", err)
	}
}

func TestRateLimiter_WaitCanceled(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.01, Burst: 1})
	_ = rl.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rl.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestRateLimiter_Tokens(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 3})
	if got := rl.Tokens(); got < 2.99 {
		t.Errorf("Tokens() = %f, want 3", got)
	}
	_ = rl.Allow()
	if got := rl.Tokens(); got > 2.01 {
		t.Errorf("Tokens() = %f, want 2", got)
	}
}
