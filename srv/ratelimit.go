package srv

import (
	"context"
	"sync"
	"time"
)

// RateLimitConfig defines a token bucket.
type RateLimitConfig struct {
	// Rate is the number of tokens added per second.
	Rate float64
	// Burst is the maximum number of tokens (bucket capacity).
	Burst int
}

// Per-envelope limits for web console connections.
var consoleRateLimits = map[string]RateLimitConfig{
	// Game actions
	"say":   {Rate: 2, Burst: 5},
	"start": {Rate: 0.2, Burst: 2},
	"stop":  {Rate: 0.2, Burst: 2},

	// Read-only / lightweight
	"state": {Rate: 2, Burst: 5},
	"ping":  {Rate: 2, Burst: 5},
}

// globalRateLimit applies to all console envelopes regardless of type.
var globalRateLimit = RateLimitConfig{Rate: 10, Burst: 20}

const (
	// LimiterCleanupInterval is how often idle author buckets are dropped.
	LimiterCleanupInterval = time.Minute
	// LimiterMaxIdle is how long an author may stay silent before their
	// bucket is forgotten.
	LimiterMaxIdle = 10 * time.Minute
)

// tokenBucket implements the token bucket algorithm.
type tokenBucket struct {
	tokens    float64
	max       float64
	rate      float64
	lastCheck time.Time
}

// newTokenBucket creates a new token bucket starting full.
func newTokenBucket(rate float64, burst int, now time.Time) *tokenBucket {
	return &tokenBucket{
		tokens:    float64(burst),
		max:       float64(burst),
		rate:      rate,
		lastCheck: now,
	}
}

// allow checks if a token is available and consumes one if so.
func (tb *tokenBucket) allow(now time.Time) bool {
	elapsed := now.Sub(tb.lastCheck).Seconds()
	tb.lastCheck = now

	tb.tokens += elapsed * tb.rate
	if tb.tokens > tb.max {
		tb.tokens = tb.max
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// ConnectionRateLimiter manages rate limits for a single web console connection.
type ConnectionRateLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	global  *tokenBucket
	buckets map[string]*tokenBucket
	// Track consecutive violations for escalating response
	violations int
}

// NewConnectionRateLimiter creates a rate limiter for one connection.
func NewConnectionRateLimiter() *ConnectionRateLimiter {
	return newConnectionRateLimiter(time.Now)
}

func newConnectionRateLimiter(now func() time.Time) *ConnectionRateLimiter {
	return &ConnectionRateLimiter{
		now:     now,
		global:  newTokenBucket(globalRateLimit.Rate, globalRateLimit.Burst, now()),
		buckets: make(map[string]*tokenBucket),
	}
}

// Allow checks if the given envelope type is allowed under rate limits.
// Returns (allowed bool, shouldDisconnect bool).
func (rl *ConnectionRateLimiter) Allow(msgType string) (bool, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()

	if !rl.global.allow(now) {
		rl.violations++
		return false, rl.violations >= 50
	}

	config, ok := consoleRateLimits[msgType]
	if !ok {
		// Unknown envelope types get a strict default
		config = RateLimitConfig{Rate: 1, Burst: 2}
	}

	bucket, exists := rl.buckets[msgType]
	if !exists {
		bucket = newTokenBucket(config.Rate, config.Burst, now)
		rl.buckets[msgType] = bucket
	}

	if !bucket.allow(now) {
		rl.violations++
		return false, rl.violations >= 50
	}

	if rl.violations > 0 {
		rl.violations--
	}
	return true, false
}

// TurnLimiter limits how fast one author may submit turns, across every
// channel and transport.
type TurnLimiter struct {
	mu      sync.Mutex
	cfg     RateLimitConfig
	now     func() time.Time
	buckets map[string]*tokenBucket
}

// NewTurnLimiter creates a limiter. A non-positive rate disables limiting.
func NewTurnLimiter(rate float64, burst int) *TurnLimiter {
	if burst < 1 {
		burst = 1
	}
	return &TurnLimiter{
		cfg:     RateLimitConfig{Rate: rate, Burst: burst},
		now:     time.Now,
		buckets: make(map[string]*tokenBucket),
	}
}

// Allow consumes a token for authorID.
func (l *TurnLimiter) Allow(authorID string) bool {
	if l == nil || l.cfg.Rate <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	b, ok := l.buckets[authorID]
	if !ok {
		b = newTokenBucket(l.cfg.Rate, l.cfg.Burst, now)
		l.buckets[authorID] = b
	}
	return b.allow(now)
}

// Len returns the number of tracked authors.
func (l *TurnLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// StartCleanup periodically forgets authors idle for longer than maxIdle,
// until ctx is done.
func (l *TurnLimiter) StartCleanup(ctx context.Context, interval, maxIdle time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.prune(maxIdle)
			}
		}
	}()
}

// prune drops buckets untouched for longer than maxIdle and returns how
// many were removed. An idle bucket has refilled, so forgetting it does
// not change any future decision.
func (l *TurnLimiter) prune(maxIdle time.Duration) int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for id, b := range l.buckets {
		if now.Sub(b.lastCheck) > maxIdle {
			delete(l.buckets, id)
			removed++
		}
	}
	return removed
}
