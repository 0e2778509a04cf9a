package middlewares_test

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/middlewares"
	"github.com/dmitrymomot/cineverse/pkg/auth"
	"github.com/dmitrymomot/cineverse/pkg/cache"
	"github.com/dmitrymomot/cineverse/pkg/db/dbtest"
	"github.com/dmitrymomot/cineverse/pkg/jwt"
)

const rememberCookie = "remember_web"

type authFixture struct {
	m    *auth.Manager
	sm   *internal.SessionManager
	r    *internal.Router
	user *auth.User
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()

	tokens, err := jwt.New(jwt.Config{
		Secret:   "middleware-test-secret",
		Issuer:   "http://localhost:8000",
		Audience: "http://localhost:8000",
		Expiry:   time.Hour,
	})
	require.NoError(t, err)

	cfg := auth.DefaultConfig()
	cfg.BcryptCost = bcrypt.MinCost
	m := auth.NewManager(dbtest.Open(t), tokens, cache.NewMemory[string](), auth.WithConfig(cfg))

	user, err := m.Register(context.Background(), auth.RegisterInput{
		Username:  "bob",
		Email:     "bob@example.com",
		Password:  "longenough1",
		FirstName: "Bob",
		LastName:  "Builder",
	})
	require.NoError(t, err)

	sm := internal.NewSessionManager(memorySessions())
	whoami := func(c internal.Context) error {
		id := middlewares.GetIdentity(c)
		return c.JSON(http.StatusOK, map[string]any{
			"user_id":  id.UserID,
			"username": id.Username,
			"role":     id.Role,
			"token":    id.Claims != nil,
		})
	}
	app := internal.New(
		internal.WithSessionManager(sm),
		internal.WithNamedMiddleware("auth", middlewares.Auth(m, middlewares.WithRememberCookie(rememberCookie))),
		internal.WithNamedMiddleware("admin", middlewares.Admin()),
		internal.WithNamedMiddleware("guest", middlewares.Guest("")),
		internal.WithHandlers(routes(func(r *internal.Router) {
			r.GET("/api/v1/user", whoami, internal.With("auth"))
			r.GET("/watchlist", whoami, internal.With("auth"))
			r.POST("/watchlist", whoami, internal.With("auth"))
			r.GET("/api/v1/admin/stats", okHandler, internal.With("auth", "admin"))
			r.GET("/auth/login", okHandler, internal.With("guest"))
			r.GET("/intended", func(c internal.Context) error {
				sess, err := c.Session()
				if err != nil || sess == nil {
					return c.String(http.StatusOK, "")
				}
				v, _ := sess.GetValue(middlewares.IntendedURLKey)
				s, _ := v.(string)
				return c.String(http.StatusOK, s)
			})
		})),
	)
	return authFixture{m: m, sm: sm, r: app.Router(), user: user}
}

// signedIn returns a session cookie bound to the fixture user.
func (f authFixture) signedIn(t *testing.T) *http.Cookie {
	t.Helper()
	snap, err := internal.NewRequest(get("/"))
	require.NoError(t, err)
	sess, err := f.sm.Create(t.Context(), snap)
	require.NoError(t, err)
	f.m.Attach(sess, f.user)
	require.NoError(t, f.sm.Save(t.Context(), sess))
	return &http.Cookie{Name: f.sm.CookieName(), Value: sess.Token}
}

func (f authFixture) token(t *testing.T) (string, *jwt.Claims) {
	t.Helper()
	token, claims, err := f.m.Tokens().Issue(f.user.ID, f.user.Username, f.user.Role)
	require.NoError(t, err)
	return token, claims
}

func TestAuth(t *testing.T) {
	t.Parallel()

	t.Run("bearer token", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		token, _ := f.token(t)

		res := do(t, f.r, request{target: "/api/v1/user", headers: []string{"Authorization", "Bearer " + token}})
		require.Equal(t, http.StatusOK, res.Status())
		body := decodeJSON(t, res)
		assert.Equal(t, float64(f.user.ID), body["user_id"])
		assert.Equal(t, "bob", body["username"])
		assert.Equal(t, true, body["token"])
	})

	t.Run("malformed token", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		res := do(t, f.r, request{target: "/api/v1/user", headers: []string{"Authorization", "Bearer nope"}})
		assert.Equal(t, http.StatusUnauthorized, res.Status())
		assert.Contains(t, string(res.Body()), "Invalid or expired token")
	})

	t.Run("revoked token", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		token, claims := f.token(t)
		require.NoError(t, f.m.Revoke(t.Context(), claims))

		res := do(t, f.r, request{target: "/api/v1/user", headers: []string{"Authorization", "Bearer " + token}})
		assert.Equal(t, http.StatusUnauthorized, res.Status())
	})

	t.Run("session identity", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		res := do(t, f.r, request{target: "/watchlist", cookies: []*http.Cookie{f.signedIn(t)}})
		require.Equal(t, http.StatusOK, res.Status())
		body := decodeJSON(t, res)
		assert.Equal(t, "bob", body["username"])
		assert.Equal(t, auth.RoleUser, body["role"])
		assert.Equal(t, false, body["token"])
	})

	t.Run("anonymous json request", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		res := do(t, f.r, request{target: "/api/v1/user"})
		assert.Equal(t, http.StatusUnauthorized, res.Status())
		assert.Contains(t, string(res.Body()), "Authentication required")
	})

	t.Run("anonymous page request is redirected", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		res := do(t, f.r, request{target: "/watchlist?page=2"})
		assert.Equal(t, http.StatusFound, res.Status())
		assert.Equal(t, middlewares.DefaultLoginPath, res.Header().Get("Location"))

		ck := res.Cookie(f.sm.CookieName())
		require.NotNil(t, ck)
		res = do(t, f.r, request{target: "/intended", cookies: []*http.Cookie{ck}})
		assert.Equal(t, "/watchlist?page=2", string(res.Body()))
	})

	t.Run("anonymous post is not remembered", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		res := do(t, f.r, request{method: http.MethodPost, target: "/watchlist"})
		assert.Equal(t, http.StatusFound, res.Status())
		assert.Nil(t, res.Cookie(f.sm.CookieName()))
	})

	t.Run("remember cookie signs the session in", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		login, err := f.m.Login(t.Context(), auth.LoginInput{Identifier: "bob", Password: "longenough1", Remember: true})
		require.NoError(t, err)
		require.NotEmpty(t, login.RememberToken)

		res := do(t, f.r, request{
			target:  "/watchlist",
			cookies: []*http.Cookie{{Name: rememberCookie, Value: login.RememberToken}},
		})
		require.Equal(t, http.StatusOK, res.Status())
		assert.Equal(t, "bob", decodeJSON(t, res)["username"])

		ck := res.Cookie(f.sm.CookieName())
		require.NotNil(t, ck)
		sess, err := f.sm.Store().Get(t.Context(), ck.Value)
		require.NoError(t, err)
		require.NotNil(t, sess.UserID)
		assert.Equal(t, strconv.FormatInt(f.user.ID, 10), *sess.UserID)
	})

	t.Run("unknown remember cookie is dropped", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		res := do(t, f.r, request{
			target:  "/watchlist",
			cookies: []*http.Cookie{{Name: rememberCookie, Value: "stale"}},
		})
		assert.Equal(t, http.StatusFound, res.Status())
		ck := res.Cookie(rememberCookie)
		require.NotNil(t, ck)
		assert.Negative(t, ck.MaxAge)
	})
}

func TestAdmin(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	token, _ := f.token(t)
	res := do(t, f.r, request{target: "/api/v1/admin/stats", headers: []string{"Authorization", "Bearer " + token}})
	assert.Equal(t, http.StatusForbidden, res.Status())
	assert.Contains(t, string(res.Body()), "Admin access required")

	require.NoError(t, f.m.SetRole(t.Context(), f.user.ID, auth.RoleAdmin))
	admin, _, err := f.m.Tokens().Issue(f.user.ID, f.user.Username, auth.RoleAdmin)
	require.NoError(t, err)
	res = do(t, f.r, request{target: "/api/v1/admin/stats", headers: []string{"Authorization", "Bearer " + admin}})
	assert.Equal(t, http.StatusOK, res.Status())

	t.Run("without auth", func(t *testing.T) {
		t.Parallel()
		r := internal.NewRouter()
		r.Middleware("admin", middlewares.Admin())
		r.GET("/api/v1/admin/stats", okHandler, internal.With("admin"))
		assert.Equal(t, http.StatusUnauthorized, do(t, r, request{target: "/api/v1/admin/stats"}).Status())
	})
}

func TestGuest(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)

	res := do(t, f.r, request{target: "/auth/login"})
	assert.Equal(t, http.StatusOK, res.Status())

	signed := f.signedIn(t)
	res = do(t, f.r, request{target: "/auth/login", cookies: []*http.Cookie{signed}})
	assert.Equal(t, http.StatusFound, res.Status())
	assert.Equal(t, middlewares.DefaultHomePath, res.Header().Get("Location"))

	res = do(t, f.r, request{
		target:  "/auth/login",
		cookies: []*http.Cookie{signed},
		headers: []string{"Accept", "application/json"},
	})
	assert.Equal(t, http.StatusForbidden, res.Status())
}
