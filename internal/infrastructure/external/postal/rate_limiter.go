package postal

import (
	"context"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER
// ══════════════════════════════════════════════════════════════════════════════

// RateLimiterConfig configures the token bucket limiter for the postal API.
// The public directory service throttles aggressively, so the defaults are
// conservative.
type RateLimiterConfig struct {
	// RequestsPerSecond is the sustained request rate.
	RequestsPerSecond float64

	// Burst is the maximum burst size.
	Burst int

	// WaitTimeout is the maximum time Allow blocks for a token.
	WaitTimeout time.Duration
}

// DefaultRateLimiterConfig returns sensible defaults.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 2,
		Burst:             5,
		WaitTimeout:       10 * time.Second,
	}
}

// RateLimiter is a token bucket rate limiter.
type RateLimiter struct {
	mu         sync.Mutex
	config     RateLimiterConfig
	tokens     float64
	lastRefill time.Time

	// pausedUntil is set when the remote API answers 429.
	pausedUntil time.Time
}

// NewRateLimiter creates a rate limiter with a full bucket.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	return &RateLimiter{
		config:     cfg,
		tokens:     float64(cfg.Burst),
		lastRefill: time.Now(),
	}
}

// Allow blocks until a token is available or the wait timeout elapses.
func (rl *RateLimiter) Allow(ctx context.Context) error {
	deadline := time.Now().Add(rl.config.WaitTimeout)
	if rl.config.WaitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	for {
		wait := rl.tryTake()
		if wait <= 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// tryTake takes a token if one is available; otherwise it returns how long to
// wait before trying again.
func (rl *RateLimiter) tryTake() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Before(rl.pausedUntil) {
		return rl.pausedUntil.Sub(now)
	}

	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens += elapsed * rl.config.RequestsPerSecond
	if rl.tokens > float64(rl.config.Burst) {
		rl.tokens = float64(rl.config.Burst)
	}
	rl.lastRefill = now

	if rl.tokens >= 1 {
		rl.tokens--
		return 0
	}

	deficit := 1 - rl.tokens
	return time.Duration(deficit / rl.config.RequestsPerSecond * float64(time.Second))
}

// RecordRateLimitHit pauses the limiter after a 429 response.
func (rl *RateLimiter) RecordRateLimitHit(retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.pausedUntil = time.Now().Add(retryAfter)
	rl.tokens = 0
}
