package middlewares_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/middlewares"
)

func requestIDRouter(opts ...middlewares.RequestIDOption) (*internal.Router, *string) {
	var seen string
	r := internal.NewRouter()
	r.Middleware("requestid", middlewares.RequestID(opts...))
	r.GET("/", func(c internal.Context) error {
		seen = middlewares.GetRequestID(c)
		return c.NoContent(http.StatusNoContent)
	}, internal.With("requestid"))
	return r, &seen
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates a ulid", func(t *testing.T) {
		t.Parallel()
		r, seen := requestIDRouter()
		res := do(t, r, request{target: "/"})
		assert.Len(t, *seen, 26)
		assert.Equal(t, *seen, res.Header().Get("X-Request-ID"))
	})

	t.Run("reuses the upstream id", func(t *testing.T) {
		t.Parallel()
		r, seen := requestIDRouter()
		res := do(t, r, request{target: "/", headers: []string{"X-Correlation-ID", "corr-1"}})
		assert.Equal(t, "corr-1", *seen)
		assert.Equal(t, "corr-1", res.Header().Get("X-Request-ID"))
	})

	t.Run("first header wins", func(t *testing.T) {
		t.Parallel()
		r, seen := requestIDRouter()
		do(t, r, request{target: "/", headers: []string{"X-Request-ID", "req-1", "X-Correlation-ID", "corr-1"}})
		assert.Equal(t, "req-1", *seen)
	})

	t.Run("oversized id is replaced", func(t *testing.T) {
		t.Parallel()
		r, seen := requestIDRouter(middlewares.WithRequestIDGenerator(func() string { return "fresh" }))
		do(t, r, request{target: "/", headers: []string{"X-Request-ID", strings.Repeat("a", 129)}})
		assert.Equal(t, "fresh", *seen)
	})

	t.Run("custom headers", func(t *testing.T) {
		t.Parallel()
		r, seen := requestIDRouter(
			middlewares.WithRequestIDHeaders("X-Trace"),
			middlewares.WithRequestIDResponseHeader("X-Trace"),
		)
		res := do(t, r, request{target: "/", headers: []string{"X-Request-ID", "ignored", "X-Trace", "t-1"}})
		assert.Equal(t, "t-1", *seen)
		assert.Equal(t, "t-1", res.Header().Get("X-Trace"))
		assert.Empty(t, res.Header().Get("X-Request-ID"))
	})

	t.Run("header survives error rendering", func(t *testing.T) {
		t.Parallel()
		r := internal.NewRouter()
		r.Middleware("requestid", middlewares.RequestID())
		r.GET("/", func(internal.Context) error {
			return internal.ErrNotFound("Movie not found")
		}, internal.With("requestid"))
		res := do(t, r, request{target: "/", headers: []string{"X-Request-ID", "req-2"}})
		assert.Equal(t, http.StatusNotFound, res.Status())
		assert.Equal(t, "req-2", res.Header().Get("X-Request-ID"))
	})

	t.Run("without middleware", func(t *testing.T) {
		t.Parallel()
		r := internal.NewRouter()
		var seen string
		r.GET("/", func(c internal.Context) error {
			seen = middlewares.GetRequestID(c)
			return nil
		})
		do(t, r, request{target: "/"})
		assert.Empty(t, seen)
	})
}

func TestRequestIDExtractor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	app := internal.New(
		internal.WithCustomLogger(captureLogger(&buf, middlewares.RequestIDExtractor())),
		internal.WithNamedMiddleware("requestid", middlewares.RequestID()),
		internal.WithHandlers(routes(func(r *internal.Router) {
			r.GET("/", func(c internal.Context) error {
				c.LogInfo("handled")
				return nil
			}, internal.With("requestid"))
		})),
	)
	do(t, app.Router(), request{target: "/", headers: []string{"X-Request-ID", "req-3"}})

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "handled", record["msg"])
	assert.Equal(t, "req-3", record["request_id"])
}
