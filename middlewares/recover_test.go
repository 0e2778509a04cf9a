package middlewares_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/middlewares"
)

func TestRecover(t *testing.T) {
	t.Parallel()

	capture := func(t *testing.T, mw internal.Middleware, h internal.HandlerFunc) error {
		t.Helper()
		var got error
		r := internal.NewRouter()
		r.Middleware("outer", func(next internal.HandlerFunc) internal.HandlerFunc {
			return func(c internal.Context) error {
				got = next(c)
				return got
			}
		})
		r.Middleware("recover", mw)
		r.GET("/", h, internal.With("outer", "recover"))
		do(t, r, request{target: "/"})
		return got
	}

	t.Run("panic becomes a PanicError", func(t *testing.T) {
		t.Parallel()
		err := capture(t, middlewares.Recover(), func(internal.Context) error { panic("kaboom") })

		pe, ok := middlewares.AsPanicError(err)
		require.True(t, ok)
		assert.Equal(t, "kaboom", pe.Value)
		assert.NotEmpty(t, pe.Stack)
		assert.Equal(t, "panic: kaboom", pe.Error())
	})

	t.Run("stack capture can be disabled", func(t *testing.T) {
		t.Parallel()
		err := capture(t, middlewares.Recover(middlewares.WithRecoverDisablePrintStack()),
			func(internal.Context) error { panic(errors.New("bad")) })

		pe, ok := middlewares.AsPanicError(err)
		require.True(t, ok)
		assert.Nil(t, pe.Stack)
	})

	t.Run("stack size is bounded", func(t *testing.T) {
		t.Parallel()
		err := capture(t, middlewares.Recover(middlewares.WithRecoverStackSize(64)),
			func(internal.Context) error { panic("x") })

		pe, ok := middlewares.AsPanicError(err)
		require.True(t, ok)
		assert.LessOrEqual(t, len(pe.Stack), 64)
	})

	t.Run("no panic passes through", func(t *testing.T) {
		t.Parallel()
		sentinel := errors.New("plain")
		err := capture(t, middlewares.Recover(), func(internal.Context) error { return sentinel })
		assert.ErrorIs(t, err, sentinel)
		assert.False(t, middlewares.IsPanicError(err))
	})
}

func TestHTTPError(t *testing.T) {
	t.Parallel()

	he := middlewares.HTTPError(&middlewares.TimeoutError{Duration: time.Second})
	require.NotNil(t, he)
	assert.Equal(t, http.StatusServiceUnavailable, he.Code)

	he = middlewares.HTTPError(&middlewares.PanicError{Value: "x"})
	require.NotNil(t, he)
	assert.Equal(t, http.StatusInternalServerError, he.Code)

	assert.Nil(t, middlewares.HTTPError(errors.New("other")))

	te, ok := middlewares.AsTimeoutError(errors.Join(errors.New("ctx"), &middlewares.TimeoutError{Duration: time.Minute}))
	require.True(t, ok)
	assert.Equal(t, time.Minute, te.Duration)
	assert.Equal(t, "request timeout after 1m0s", te.Error())
}
