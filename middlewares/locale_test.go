package middlewares_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/middlewares"
	"github.com/dmitrymomot/cineverse/pkg/i18n"
	"github.com/dmitrymomot/cineverse/pkg/validator"
)

func TestLocale(t *testing.T) {
	t.Parallel()

	langs, err := i18n.NewLanguages([]string{"en", "rw", "fr"}, "en")
	require.NoError(t, err)

	sm := internal.NewSessionManager(memorySessions())
	app := internal.New(
		internal.WithSessionManager(sm),
		internal.WithNamedMiddleware("locale", middlewares.Locale(langs, nil)),
		internal.WithHandlers(routes(func(r *internal.Router) {
			r.GET("/", func(c internal.Context) error {
				return c.String(http.StatusOK, c.Language())
			}, internal.With("locale"))
		})),
	)

	sessionWith := func(t *testing.T, lang string) *http.Cookie {
		t.Helper()
		snap, err := internal.NewRequest(get("/"))
		require.NoError(t, err)
		sess, err := sm.Create(t.Context(), snap)
		require.NoError(t, err)
		sess.SetValue(middlewares.SessionLanguageKey, lang)
		require.NoError(t, sm.Save(t.Context(), sess))
		return &http.Cookie{Name: sm.CookieName(), Value: sess.Token}
	}

	tests := []struct {
		name string
		rq   func(t *testing.T) request
		want string
	}{
		{"default", func(*testing.T) request { return request{target: "/"} }, "en"},
		{"accept-language", func(*testing.T) request {
			return request{target: "/", headers: []string{"Accept-Language", "fr-CA,fr;q=0.8"}}
		}, "fr"},
		{"query beats header", func(*testing.T) request {
			return request{target: "/?lang=rw", headers: []string{"Accept-Language", "fr"}}
		}, "rw"},
		{"cookie beats query", func(*testing.T) request {
			return request{target: "/?lang=rw", cookies: []*http.Cookie{{Name: "lang", Value: "fr"}}}
		}, "fr"},
		{"unsupported cookie is skipped", func(*testing.T) request {
			return request{target: "/?lang=rw", cookies: []*http.Cookie{{Name: "lang", Value: "de"}}}
		}, "rw"},
		{"session beats cookie", func(t *testing.T) request {
			return request{target: "/", cookies: []*http.Cookie{sessionWith(t, "rw"), {Name: "lang", Value: "fr"}}}
		}, "rw"},
		{"unsupported session value is skipped", func(t *testing.T) request {
			return request{target: "/", cookies: []*http.Cookie{sessionWith(t, "de")}, headers: []string{"Accept-Language", "fr"}}
		}, "fr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := do(t, app.Router(), tt.rq(t))
			assert.Equal(t, tt.want, string(res.Body()))
			assert.Equal(t, tt.want, res.Header().Get("Content-Language"))
		})
	}
}

func TestLocaleTranslator(t *testing.T) {
	t.Parallel()

	langs, err := i18n.NewLanguages([]string{"en", "rw", "fr"}, "en")
	require.NoError(t, err)
	catalog, err := i18n.New(i18n.WithDefaults())
	require.NoError(t, err)

	app := internal.New(
		internal.WithNamedMiddleware("locale", middlewares.Locale(langs, catalog)),
		internal.WithHandlers(routes(func(r *internal.Router) {
			r.GET("/flash", func(c internal.Context) error {
				return c.String(http.StatusOK, c.T("flash.settings_saved"))
			}, internal.With("locale"))
			r.POST("/signup", func(c internal.Context) error {
				return validator.Var("email", "", "required")
			}, internal.With("locale"))
		})),
	)

	t.Run("flash message", func(t *testing.T) {
		t.Parallel()
		res := do(t, app.Router(), request{target: "/flash?lang=fr"})
		assert.Equal(t, "Paramètres enregistrés.", string(res.Body()))

		res = do(t, app.Router(), request{target: "/flash"})
		assert.Equal(t, "Settings saved.", string(res.Body()))
	})

	t.Run("validation errors follow the request language", func(t *testing.T) {
		t.Parallel()
		res := do(t, app.Router(), request{
			method:  http.MethodPost,
			target:  "/signup",
			headers: []string{"Accept", "application/json", "Accept-Language", "rw"},
		})
		require.Equal(t, http.StatusUnprocessableEntity, res.Status())
		assert.Contains(t, string(res.Body()), "email irakenewe.")

		res = do(t, app.Router(), request{
			method:  http.MethodPost,
			target:  "/signup",
			headers: []string{"Accept", "application/json"},
		})
		assert.Contains(t, string(res.Body()), "The email field is required.")
	})
}

func TestLanguageWithoutLocale(t *testing.T) {
	t.Parallel()

	r := internal.NewRouter()
	r.GET("/", func(c internal.Context) error { return c.String(http.StatusOK, c.Language()) })
	r.GET("/t", func(c internal.Context) error { return c.String(http.StatusOK, c.T("flash.settings_saved")) })
	assert.Empty(t, string(do(t, r, request{target: "/"}).Body()))
	assert.Equal(t, "flash.settings_saved", string(do(t, r, request{target: "/t"}).Body()))
}
