package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// Rate is the number of operations allowed per second.
	// Default: 100
	Rate float64

	// Burst is the maximum burst size.
	// Default: 10
	Burst int

	// WaitOnLimit waits for a token instead of returning an error.
	// Default: false
	WaitOnLimit bool

	// MaxWait is the maximum time to wait for a token.
	// Default: 1 second
	MaxWait time.Duration
}

func (c RateLimiterConfig) withDefaults() RateLimiterConfig {
	if c.Rate <= 0 {
		c.Rate = 100
	}
	if c.Burst <= 0 {
		c.Burst = 10
	}
	if c.MaxWait <= 0 {
		c.MaxWait = time.Second
	}
	return c
}

// RateLimiter is a token bucket limiter.
type RateLimiter struct {
	config RateLimiterConfig

	mu      sync.RWMutex
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	config = config.withDefaults()
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

// Allow reports whether a request may proceed now.
func (rl *RateLimiter) Allow() bool {
	return rl.current().Allow()
}

// AllowN reports whether n requests may proceed now.
func (rl *RateLimiter) AllowN(n int) bool {
	return rl.current().AllowN(time.Now(), n)
}

// Wait blocks until a token is available, MaxWait elapses or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.WaitN(ctx, 1)
}

// WaitN blocks until n tokens are available.
func (rl *RateLimiter) WaitN(ctx context.Context, n int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, rl.config.MaxWait)
	defer cancel()

	if err := rl.current().WaitN(waitCtx, n); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errors.Join(ErrRateLimitExceeded, err)
	}
	return nil
}

// Execute runs the operation if allowed by the rate limit.
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

// Reset refills the bucket.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.limiter = rate.NewLimiter(rate.Limit(rl.config.Rate), rl.config.Burst)
}

// KeyedRateLimiter keeps an independent token bucket per key, such as a
// learner id. Buckets idle longer than IdleTTL are dropped.
type KeyedRateLimiter struct {
	config  RateLimiterConfig
	idleTTL time.Duration
	now     func() time.Time

	mu      sync.Mutex
	buckets map[string]*keyedBucket
	sweeps  int
}

type keyedBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// DefaultIdleTTL is how long an unused per-key bucket is retained.
const DefaultIdleTTL = 10 * time.Minute

// NewKeyedRateLimiter creates a per-key limiter. idleTTL <= 0 uses DefaultIdleTTL.
func NewKeyedRateLimiter(config RateLimiterConfig, idleTTL time.Duration) *KeyedRateLimiter {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &KeyedRateLimiter{
		config:  config.withDefaults(),
		idleTTL: idleTTL,
		now:     time.Now,
		buckets: make(map[string]*keyedBucket),
	}
}

// Allow reports whether key may proceed now.
func (k *KeyedRateLimiter) Allow(key string) bool {
	k.mu.Lock()
	now := k.now()
	b, ok := k.buckets[key]
	if !ok {
		b = &keyedBucket{limiter: rate.NewLimiter(rate.Limit(k.config.Rate), k.config.Burst)}
		k.buckets[key] = b
	}
	b.lastSeen = now
	k.sweeps++
	if k.sweeps >= 1024 {
		k.sweeps = 0
		k.evictLocked(now)
	}
	k.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (k *KeyedRateLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}

// Evict drops buckets idle longer than the idle TTL.
func (k *KeyedRateLimiter) Evict() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.evictLocked(k.now())
}

func (k *KeyedRateLimiter) evictLocked(now time.Time) {
	for key, b := range k.buckets {
		if now.Sub(b.lastSeen) > k.idleTTL {
			delete(k.buckets, key)
		}
	}
}
