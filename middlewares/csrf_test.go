package middlewares_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/middlewares"
)

func csrfRouter(opts ...middlewares.CSRFOption) (*internal.Router, string) {
	sm := internal.NewSessionManager(memorySessions())
	app := internal.New(
		internal.WithSessionManager(sm),
		internal.WithNamedMiddleware("csrf", middlewares.CSRF(opts...)),
		internal.WithHandlers(routes(func(r *internal.Router) {
			r.Group(internal.GroupAttrs{Middleware: []string{"csrf"}}, func(r *internal.Router) {
				r.GET("/profile", func(c internal.Context) error {
					return c.String(http.StatusOK, middlewares.CSRFToken(c))
				})
				r.POST("/profile", okHandler)
			})
		})),
	)
	return app.Router(), sm.CookieName()
}

func TestCSRF(t *testing.T) {
	t.Parallel()

	// form loads the page and returns the session cookie and its token.
	form := func(t *testing.T, r *internal.Router, cookieName string) (*http.Cookie, string) {
		t.Helper()
		res := do(t, r, request{target: "/profile"})
		require.Equal(t, http.StatusOK, res.Status())
		ck := res.Cookie(cookieName)
		require.NotNil(t, ck)
		token := string(res.Body())
		require.NotEmpty(t, token)
		return ck, token
	}
	post := func(ck *http.Cookie, body string, headers ...string) request {
		rq := request{
			method:  http.MethodPost,
			target:  "/profile",
			body:    body,
			headers: append([]string{"Content-Type", "application/x-www-form-urlencoded"}, headers...),
		}
		if ck != nil {
			rq.cookies = []*http.Cookie{ck}
		}
		return rq
	}

	t.Run("token in form field", func(t *testing.T) {
		t.Parallel()
		r, name := csrfRouter()
		ck, token := form(t, r, name)
		res := do(t, r, post(ck, url.Values{"csrf_token": {token}}.Encode()))
		assert.Equal(t, http.StatusOK, res.Status())
	})

	t.Run("token in header", func(t *testing.T) {
		t.Parallel()
		r, name := csrfRouter()
		ck, token := form(t, r, name)
		res := do(t, r, post(ck, "", "X-CSRF-Token", token))
		assert.Equal(t, http.StatusOK, res.Status())
	})

	t.Run("token is stable across pages", func(t *testing.T) {
		t.Parallel()
		r, name := csrfRouter()
		ck, token := form(t, r, name)
		res := do(t, r, request{target: "/profile", cookies: []*http.Cookie{ck}})
		assert.Equal(t, token, string(res.Body()))
	})

	t.Run("wrong token", func(t *testing.T) {
		t.Parallel()
		r, name := csrfRouter()
		ck, _ := form(t, r, name)
		res := do(t, r, post(ck, "csrf_token=forged"))
		assert.Equal(t, http.StatusForbidden, res.Status())
	})

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()
		r, name := csrfRouter()
		ck, _ := form(t, r, name)
		res := do(t, r, post(ck, ""))
		assert.Equal(t, http.StatusForbidden, res.Status())
	})

	t.Run("no session", func(t *testing.T) {
		t.Parallel()
		r, _ := csrfRouter()
		res := do(t, r, post(nil, "csrf_token=anything"))
		assert.Equal(t, http.StatusForbidden, res.Status())
	})

	t.Run("custom field", func(t *testing.T) {
		t.Parallel()
		r, name := csrfRouter(middlewares.WithCSRFField("_token"))
		ck, token := form(t, r, name)
		res := do(t, r, post(ck, url.Values{"_token": {token}}.Encode()))
		assert.Equal(t, http.StatusOK, res.Status())
	})
}

func TestCSRFTokenWithoutSession(t *testing.T) {
	t.Parallel()

	r := internal.NewRouter()
	r.GET("/", func(c internal.Context) error {
		return c.String(http.StatusOK, middlewares.CSRFToken(c))
	})
	assert.Empty(t, string(do(t, r, request{target: "/"}).Body()))
}
