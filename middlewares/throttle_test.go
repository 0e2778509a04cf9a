package middlewares_test

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/middlewares"
)

type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLimiter(t *testing.T) {
	t.Parallel()

	t.Run("budget then refill", func(t *testing.T) {
		t.Parallel()
		clk := newFakeClock()
		l := middlewares.NewLimiter(3, time.Minute, middlewares.WithLimiterClock(clk.Now))
		assert.Equal(t, 3, l.Limit())

		for want := 2; want >= 0; want-- {
			ok, remaining, _ := l.Allow("10.0.0.1")
			require.True(t, ok)
			assert.Equal(t, want, remaining)
		}

		ok, remaining, retry := l.Allow("10.0.0.1")
		assert.False(t, ok)
		assert.Zero(t, remaining)
		assert.InDelta(t, float64(20*time.Second), float64(retry), float64(time.Millisecond))

		clk.Advance(21 * time.Second)
		ok, _, _ = l.Allow("10.0.0.1")
		assert.True(t, ok)
	})

	t.Run("denied requests do not consume tokens", func(t *testing.T) {
		t.Parallel()
		clk := newFakeClock()
		l := middlewares.NewLimiter(1, time.Minute, middlewares.WithLimiterClock(clk.Now))

		ok, _, _ := l.Allow("k")
		require.True(t, ok)
		for range 5 {
			ok, _, _ = l.Allow("k")
			require.False(t, ok)
		}
		clk.Advance(2 * time.Minute)
		ok, _, _ = l.Allow("k")
		assert.True(t, ok)
	})

	t.Run("keys are independent", func(t *testing.T) {
		t.Parallel()
		l := middlewares.NewLimiter(1, time.Hour)
		ok, _, _ := l.Allow("a")
		require.True(t, ok)
		ok, _, _ = l.Allow("b")
		assert.True(t, ok)
		assert.Equal(t, 2, l.Len())
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		l := middlewares.NewLimiter(0, 0)
		assert.Equal(t, middlewares.DefaultThrottleRequests, l.Limit())
	})

	t.Run("sweep drops idle buckets", func(t *testing.T) {
		t.Parallel()
		clk := newFakeClock()
		l := middlewares.NewLimiter(5, time.Minute, middlewares.WithLimiterClock(clk.Now))
		l.Allow("old")
		clk.Advance(50 * time.Second)
		l.Allow("new")
		clk.Advance(20 * time.Second)

		assert.Equal(t, 1, l.Sweep())
		assert.Equal(t, 1, l.Len())
	})
}

func TestThrottle(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	l := middlewares.NewLimiter(2, time.Minute, middlewares.WithLimiterClock(clk.Now))
	r := internal.NewRouter()
	r.Middleware("throttle", middlewares.Throttle(l, nil))
	r.GET("/api/v1/movies", okHandler, internal.With("throttle"))

	from := func(ip string) request {
		return request{target: "/api/v1/movies", headers: []string{"X-Forwarded-For", ip}}
	}

	res := do(t, r, from("198.51.100.1"))
	assert.Equal(t, http.StatusOK, res.Status())
	assert.Equal(t, "2", res.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", res.Header().Get("X-RateLimit-Remaining"))

	res = do(t, r, from("198.51.100.1"))
	assert.Equal(t, http.StatusOK, res.Status())
	assert.Equal(t, "0", res.Header().Get("X-RateLimit-Remaining"))

	res = do(t, r, from("198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, res.Status())
	assert.Equal(t, "30", res.Header().Get("Retry-After"))
	assert.Equal(t, "0", res.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, string(res.Body()), "Too many requests")

	res = do(t, r, from("198.51.100.2"))
	assert.Equal(t, http.StatusOK, res.Status())
}
