package middlewares

import (
	"math"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmitrymomot/cineverse/internal"
)

// Default throttle budget: 100 requests per hour per client.
const (
	DefaultThrottleRequests = 100
	DefaultThrottleWindow   = time.Hour
)

// Limiter keeps one token bucket per key. A bucket holds up to requests
// tokens and refills at requests per window.
type Limiter struct {
	now     func() time.Time
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	mu      sync.Mutex
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

// WithLimiterClock overrides the time source, for tests.
func WithLimiterClock(now func() time.Time) LimiterOption {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLimiter creates a Limiter. Non-positive arguments fall back to the
// defaults.
func NewLimiter(requests int, window time.Duration, opts ...LimiterOption) *Limiter {
	if requests <= 0 {
		requests = DefaultThrottleRequests
	}
	if window <= 0 {
		window = DefaultThrottleWindow
	}
	l := &Limiter{
		now:     time.Now,
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(float64(requests) / window.Seconds()),
		burst:   requests,
		idleTTL: window,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Limit returns the bucket size.
func (l *Limiter) Limit() int { return l.burst }

// Allow takes one token from key's bucket. It returns whether the request
// may proceed, the tokens left, and how long to wait when it may not.
func (l *Limiter) Allow(key string) (bool, int, time.Duration) {
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	lim := b.limiter
	l.mu.Unlock()

	r := lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, 0, delay
	}
	remaining := int(math.Max(0, math.Floor(lim.TokensAt(now))))
	return true, remaining, 0
}

// Sweep drops buckets idle for longer than the window. An idle bucket is
// full again, so dropping it changes nothing for its client.
func (l *Limiter) Sweep() int {
	cutoff := l.now().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
			n++
		}
	}
	return n
}

// Len returns the number of tracked buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// ThrottleKeyFunc derives the bucket key of a request.
type ThrottleKeyFunc func(c internal.Context) string

// ByClientIP keys buckets by client IP.
func ByClientIP(c internal.Context) string {
	return c.Request().ClientIP()
}

// Throttle rejects requests beyond the limiter budget with 429 and a
// Retry-After header. Every answer carries X-RateLimit-Limit and
// X-RateLimit-Remaining. The key defaults to the client IP.
func Throttle(l *Limiter, key ThrottleKeyFunc) internal.Middleware {
	if key == nil {
		key = ByClientIP
	}
	limit := strconv.Itoa(l.Limit())

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			ok, remaining, retry := l.Allow(key(c))
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
				c.LogWarn("rate limit exceeded", "client_ip", c.Request().ClientIP())
				return internal.ErrTooManyRequests("Too many requests")
			}
			return next(c)
		}
	}
}
