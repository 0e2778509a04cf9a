package internal_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/pkg/cache"
	"github.com/dmitrymomot/cineverse/pkg/session"
)

func newSessionRouter(t *testing.T, opts ...internal.SessionOption) (*internal.Router, *internal.SessionManager) {
	t.Helper()
	store := session.NewCacheStore(cache.NewMemory[session.Record](), cache.NewMemory[string]())
	sm := internal.NewSessionManager(store, opts...)
	app := internal.New(
		internal.WithSessionManager(sm),
		internal.WithHandlers(handlerFunc(func(r *internal.Router) {
			r.GET("/start", func(c internal.Context) error {
				sess, err := c.StartSession()
				if err != nil {
					return err
				}
				sess.SetFlash("notice", "welcome back")
				return c.String(http.StatusOK, sess.ID)
			})
			r.GET("/peek", func(c internal.Context) error {
				sess, err := c.Session()
				if err != nil {
					return err
				}
				if sess == nil {
					return c.String(http.StatusOK, "none")
				}
				return c.String(http.StatusOK, sess.FlashString("notice"))
			})
			r.POST("/login", func(c internal.Context) error {
				if err := c.AuthenticateSession("user-1"); err != nil {
					return err
				}
				return c.NoContent(http.StatusNoContent)
			})
			r.POST("/logout", func(c internal.Context) error {
				if err := c.DestroySession(); err != nil {
					return err
				}
				return c.NoContent(http.StatusNoContent)
			})
		})),
	)
	return app.Router(), sm
}

func withSession(token string) []string {
	return []string{"Cookie", internal.DefaultSessionCookie + "=" + token}
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("start issues a cookie and flash is read once", func(t *testing.T) {
		t.Parallel()
		r, _ := newSessionRouter(t)

		res := dispatch(t, r, http.MethodGet, "/start", "")
		require.Equal(t, http.StatusOK, res.Status())
		ck := res.Cookie(internal.DefaultSessionCookie)
		require.NotNil(t, ck)
		assert.NotEmpty(t, ck.Value)
		assert.True(t, ck.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)

		res = dispatch(t, r, http.MethodGet, "/peek", "", withSession(ck.Value)...)
		assert.Equal(t, "welcome back", string(res.Body()))
		assert.Nil(t, res.Cookie(internal.DefaultSessionCookie), "existing session is not re-issued")

		res = dispatch(t, r, http.MethodGet, "/peek", "", withSession(ck.Value)...)
		assert.Equal(t, "", string(res.Body()))
	})

	t.Run("request without cookie has no session", func(t *testing.T) {
		t.Parallel()
		r, _ := newSessionRouter(t)

		res := dispatch(t, r, http.MethodGet, "/peek", "")
		assert.Equal(t, "none", string(res.Body()))
		res = dispatch(t, r, http.MethodGet, "/peek", "", withSession("unknown-token")...)
		assert.Equal(t, "none", string(res.Body()))
	})

	t.Run("authentication rotates the token", func(t *testing.T) {
		t.Parallel()
		r, sm := newSessionRouter(t)

		first := dispatch(t, r, http.MethodGet, "/start", "").Cookie(internal.DefaultSessionCookie)
		require.NotNil(t, first)

		res := dispatch(t, r, http.MethodPost, "/login", "", withSession(first.Value)...)
		require.Equal(t, http.StatusNoContent, res.Status())
		rotated := res.Cookie(internal.DefaultSessionCookie)
		require.NotNil(t, rotated)
		assert.NotEqual(t, first.Value, rotated.Value)

		_, err := sm.Store().Get(context.Background(), first.Value)
		require.ErrorIs(t, err, session.ErrNotFound)

		sess, err := sm.Store().Get(context.Background(), rotated.Value)
		require.NoError(t, err)
		require.NotNil(t, sess.UserID)
		assert.Equal(t, "user-1", *sess.UserID)
	})

	t.Run("login without a prior session creates one", func(t *testing.T) {
		t.Parallel()
		r, sm := newSessionRouter(t)

		res := dispatch(t, r, http.MethodPost, "/login", "")
		ck := res.Cookie(internal.DefaultSessionCookie)
		require.NotNil(t, ck)

		sess, err := sm.Store().Get(context.Background(), ck.Value)
		require.NoError(t, err)
		assert.True(t, sess.IsAuthenticated())
	})

	t.Run("destroy clears the cookie", func(t *testing.T) {
		t.Parallel()
		r, sm := newSessionRouter(t)

		ck := dispatch(t, r, http.MethodGet, "/start", "").Cookie(internal.DefaultSessionCookie)
		require.NotNil(t, ck)

		res := dispatch(t, r, http.MethodPost, "/logout", "", withSession(ck.Value)...)
		require.Equal(t, http.StatusNoContent, res.Status())
		cleared := res.Cookie(internal.DefaultSessionCookie)
		require.NotNil(t, cleared)
		assert.Empty(t, cleared.Value)
		assert.Negative(t, cleared.MaxAge)

		_, err := sm.Store().Get(context.Background(), ck.Value)
		require.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("custom cookie name", func(t *testing.T) {
		t.Parallel()
		r, sm := newSessionRouter(t, internal.WithSessionConfig(session.Config{Cookie: "sid", Secure: true}))
		assert.Equal(t, "sid", sm.CookieName())

		ck := dispatch(t, r, http.MethodGet, "/start", "").Cookie("sid")
		require.NotNil(t, ck)
		assert.True(t, ck.Secure)
	})
}

func TestSessionNotConfigured(t *testing.T) {
	t.Parallel()

	r := internal.NewRouter()
	var got error
	r.GET("/x", func(c internal.Context) error {
		_, got = c.Session()
		return c.NoContent(http.StatusNoContent)
	})

	dispatch(t, r, http.MethodGet, "/x", "")
	require.ErrorIs(t, got, session.ErrNotConfigured)
}

func TestSessionManagerLoad(t *testing.T) {
	t.Parallel()

	store := session.NewCacheStore(cache.NewMemory[session.Record](), cache.NewMemory[string]())

	t.Run("expired session loads as nil", func(t *testing.T) {
		t.Parallel()
		past := time.Now().Add(-3 * time.Hour)
		sm := internal.NewSessionManager(store,
			internal.WithSessionLifetime(time.Hour),
			internal.WithSessionClock(func() time.Time { return past }),
		)

		snap, err := internal.NewRequest(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		sess, err := sm.Create(context.Background(), snap)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: internal.DefaultSessionCookie, Value: sess.Token})
		snap, err = internal.NewRequest(req)
		require.NoError(t, err)

		loaded, err := sm.Load(context.Background(), snap)
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("create records client details", func(t *testing.T) {
		t.Parallel()
		sm := internal.NewSessionManager(store)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.10:1234"
		req.Header.Set("User-Agent", "Mozilla/5.0")
		snap, err := internal.NewRequest(req)
		require.NoError(t, err)

		sess, err := sm.Create(context.Background(), snap)
		require.NoError(t, err)
		assert.Equal(t, "192.0.2.10", sess.IP)
		assert.Equal(t, "Mozilla/5.0", sess.UserAgent)
		assert.False(t, sess.IsAuthenticated())
		assert.NotEmpty(t, sess.CSRFToken())
	})
}
