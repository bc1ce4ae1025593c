package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// Rate is the number of operations allowed per second.
	// Default: 10
	Rate float64

	// Burst is the maximum burst size.
	// Default: 1
	Burst int

	// WaitOnLimit makes Execute wait for a token instead of failing.
	// Default: false
	WaitOnLimit bool

	// MaxWait bounds how long Wait blocks for a token.
	// Default: 1 second
	MaxWait time.Duration
}

// RateLimiter is a token bucket limiter backed by golang.org/x/time/rate.
type RateLimiter struct {
	config RateLimiterConfig

	mu      sync.RWMutex
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 10
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	if config.MaxWait <= 0 {
		config.MaxWait = time.Second
	}

	return &RateLimiter{
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.Rate), config.Burst),
	}
}

func (rl *RateLimiter) current() *rate.Limiter {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return rl.limiter
}

// Allow reports whether an operation may run now, consuming a token if so.
func (rl *RateLimiter) Allow() bool {
	return rl.current().Allow()
}

// Wait blocks until a token is available, MaxWait elapses, or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, rl.config.MaxWait)
	defer cancel()

	err := rl.current().Wait(waitCtx)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %v", ErrRateLimitExceeded, err)
}

// Execute runs op if allowed by the rate limit.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if rl.config.WaitOnLimit {
		if err := rl.Wait(ctx); err != nil {
			return err
		}
	} else if !rl.Allow() {
		return ErrRateLimitExceeded
	}

	return op(ctx)
}

// Tokens returns the number of tokens currently available.
func (rl *RateLimiter) Tokens() float64 {
	return rl.current().Tokens()
}

// Reset restores the limiter to a full bucket.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.limiter = rate.NewLimiter(rate.Limit(rl.config.Rate), rl.config.Burst)
}
