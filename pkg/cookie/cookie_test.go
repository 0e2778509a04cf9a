package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cineverse/pkg/cookie"
)

const secret = "cineverse-test-application-key-32"

// roundTrip copies the cookies written to w onto a fresh request.
func roundTrip(w *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestPlain(t *testing.T) {
	t.Parallel()

	m := cookie.New(cookie.WithDomain("cineverse.rw"), cookie.WithSecure(true))

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		_, err := m.Get(httptest.NewRequest(http.MethodGet, "/", nil), "lang")
		assert.ErrorIs(t, err, cookie.ErrNotFound)
	})

	t.Run("set and get", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		m.Set(w, "lang", "rw", 3600)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		c := cookies[0]
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, "cineverse.rw", c.Domain)
		assert.Equal(t, 3600, c.MaxAge)
		assert.True(t, c.Secure)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

		v, err := m.Get(roundTrip(w), "lang")
		require.NoError(t, err)
		assert.Equal(t, "rw", v)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		m.Delete(w, "lang")
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Empty(t, cookies[0].Value)
		assert.Negative(t, cookies[0].MaxAge)
	})
}

func TestSigned(t *testing.T) {
	t.Parallel()

	m := cookie.New(cookie.WithSecret(secret))

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		require.NoError(t, m.SetSigned(w, "remember_web", "42|token", 0))
		v, err := m.GetSigned(roundTrip(w), "remember_web")
		require.NoError(t, err)
		assert.Equal(t, "42|token", v)
	})

	t.Run("bound to name", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		require.NoError(t, m.SetSigned(w, "a", "value", 0))
		c := w.Result().Cookies()[0]

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "b", Value: c.Value})
		_, err := m.GetSigned(r, "b")
		assert.ErrorIs(t, err, cookie.ErrBadSig)
	})

	t.Run("other secret", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		require.NoError(t, m.SetSigned(w, "a", "value", 0))
		other := cookie.New(cookie.WithSecret(secret + "-rotated"))
		_, err := other.GetSigned(roundTrip(w), "a")
		assert.ErrorIs(t, err, cookie.ErrBadSig)
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "a", Value: "no-separator"})
		_, err := m.GetSigned(r, "a")
		assert.ErrorIs(t, err, cookie.ErrMalformed)
	})

	t.Run("no secret", func(t *testing.T) {
		t.Parallel()
		short := cookie.New(cookie.WithSecret("too-short"))
		assert.ErrorIs(t, short.SetSigned(httptest.NewRecorder(), "a", "v", 0), cookie.ErrNoSecret)
		_, err := short.GetSigned(httptest.NewRequest(http.MethodGet, "/", nil), "a")
		assert.ErrorIs(t, err, cookie.ErrNoSecret)
	})
}

func TestConfig(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.SameSiteStrictMode, cookie.ParseSameSite("Strict"))
	assert.Equal(t, http.SameSiteNoneMode, cookie.ParseSameSite("none"))
	assert.Equal(t, http.SameSiteLaxMode, cookie.ParseSameSite(""))

	m := cookie.New(cookie.Config{SameSite: "none"}.Options()...)
	w := httptest.NewRecorder()
	m.Set(w, "x", "1", 0)
	c := w.Result().Cookies()[0]
	assert.True(t, c.Secure, "SameSite=None requires Secure")
	assert.Equal(t, http.SameSiteNoneMode, c.SameSite)
}
