// middleware/ratelimit.go
package middleware

import (
	"context"
	"strings"
	"sync"
	"time"

	"mediahub/config"

	"github.com/gofiber/fiber/v2"
)

// Token bucket rate limiter implementation
type TokenBucket struct {
	tokens         float64
	maxTokens      float64
	refillRate     float64 // tokens per second
	lastRefillTime time.Time
	mu             sync.Mutex
}

func NewTokenBucket(maxTokens, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:         maxTokens,
		maxTokens:      maxTokens,
		refillRate:     refillRate,
		lastRefillTime: time.Now(),
	}
}

func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefillTime).Seconds()
	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > tb.maxTokens {
		tb.tokens = tb.maxTokens
	}
	tb.lastRefillTime = now

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// Rate limiter storage
type RateLimiter struct {
	buckets map[string]*TokenBucket
	mu      sync.Mutex

	maxRequests int
	window      time.Duration
}

func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		buckets:     make(map[string]*TokenBucket),
		maxRequests: maxRequests,
		window:      window,
	}
}

func (rl *RateLimiter) getBucket(key string) *TokenBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, exists := rl.buckets[key]
	if !exists {
		refillRate := float64(rl.maxRequests) / rl.window.Seconds()
		bucket = NewTokenBucket(float64(rl.maxRequests), refillRate)
		rl.buckets[key] = bucket
	}
	return bucket
}

func (rl *RateLimiter) Allow(key string) bool {
	return rl.getBucket(key).Allow()
}

// prune drops buckets idle for longer than maxIdle.
func (rl *RateLimiter) prune(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, bucket := range rl.buckets {
		bucket.mu.Lock()
		if now.Sub(bucket.lastRefillTime) > maxIdle {
			delete(rl.buckets, key)
		}
		bucket.mu.Unlock()
	}
}

// Limiters groups the per-route-class limiters built from config.
type Limiters struct {
	enabled bool
	general *RateLimiter
	auth    *RateLimiter
	analyze *RateLimiter
}

func NewLimiters(cfg *config.Config) *Limiters {
	return &Limiters{
		enabled: cfg.RateLimitEnabled,
		general: NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow),
		auth:    NewRateLimiter(cfg.AuthRateLimitMax, cfg.AuthRateWindow),
		analyze: NewRateLimiter(cfg.AnalyzeRateMax, cfg.AnalyzeRateWindow),
	}
}

// StartCleanup prunes idle buckets every 10 minutes until ctx is done.
func (l *Limiters) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.general.prune(30 * time.Minute)
				l.auth.prune(30 * time.Minute)
				l.analyze.prune(30 * time.Minute)
			}
		}
	}()
}

// General applies the default limit to everything except health checks.
func (l *Limiters) General() fiber.Handler {
	return l.limit(l.general, "Rate limit exceeded. Please try again later.", func(c *fiber.Ctx) bool {
		path := c.Path()
		return path == "/health" || path == "/api/health" || strings.HasPrefix(path, "/ws/")
	})
}

// Auth applies the stricter login/register limit.
func (l *Limiters) Auth() fiber.Handler {
	return l.limit(l.auth, "Too many authentication attempts. Please try again later.", nil)
}

// Analyze caps calls that reach the language model.
func (l *Limiters) Analyze() fiber.Handler {
	return l.limit(l.analyze, "Too many analysis requests. Please wait a minute and try again.", nil)
}

func (l *Limiters) limit(rl *RateLimiter, message string, skip func(*fiber.Ctx) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.enabled || (skip != nil && skip(c)) {
			return c.Next()
		}
		if !rl.Allow(c.IP()) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"message": message,
			})
		}
		return c.Next()
	}
}
