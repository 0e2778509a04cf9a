package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/cineverse/handlers"
	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/middlewares"
	"github.com/dmitrymomot/cineverse/pkg/auth"
	"github.com/dmitrymomot/cineverse/pkg/cache"
	"github.com/dmitrymomot/cineverse/pkg/catalog"
	"github.com/dmitrymomot/cineverse/pkg/db/dbtest"
	"github.com/dmitrymomot/cineverse/pkg/i18n"
	"github.com/dmitrymomot/cineverse/pkg/jwt"
	"github.com/dmitrymomot/cineverse/pkg/payment"
	"github.com/dmitrymomot/cineverse/pkg/session"
	"github.com/dmitrymomot/cineverse/pkg/storage"
)

const password = "longenough1"

type routes func(r *internal.Router)

func (f routes) Routes(r *internal.Router) { f(r) }

type app struct {
	r        *internal.Router
	sm       *internal.SessionManager
	auth     *auth.Manager
	catalog  *catalog.Service
	payments *payment.Service
	store    *storage.Memory
	user     *auth.User
	admin    *auth.User
}

func newApp(t *testing.T) *app {
	t.Helper()

	conn := dbtest.Open(t)
	tokens, err := jwt.New(jwt.Config{
		Secret:   "handlers-test-secret",
		Issuer:   "http://localhost:8000",
		Audience: "http://localhost:8000",
		Expiry:   time.Hour,
	})
	require.NoError(t, err)

	cfg := auth.DefaultConfig()
	cfg.BcryptCost = bcrypt.MinCost
	a := &app{
		auth:    auth.NewManager(conn, tokens, cache.NewMemory[string](), auth.WithConfig(cfg)),
		catalog: catalog.NewService(conn, nil),
		payments: payment.NewService(conn,
			payment.WithProvider(payment.NewSandbox(payment.MethodMTN)),
			payment.WithProvider(payment.NewSandbox(payment.MethodAirtel)),
		),
		store: storage.NewMemory("http://cdn.test/media"),
		sm:    internal.NewSessionManager(session.NewCacheStore(cache.NewMemory[session.Record](), cache.NewMemory[string]())),
	}
	a.user = a.register(t, "bob")
	a.admin = a.register(t, "alice")
	require.NoError(t, a.auth.SetRole(context.Background(), a.admin.ID, auth.RoleAdmin))
	a.admin.Role = auth.RoleAdmin

	langs, err := i18n.NewLanguages([]string{"en", "rw", "fr"}, "en")
	require.NoError(t, err)
	messages, err := i18n.New(i18n.WithDefaults())
	require.NoError(t, err)

	api := []internal.Handler{
		handlers.NewAuth(a.auth),
		handlers.NewUser(a.auth, a.catalog, a.store),
		handlers.NewMovies(a.catalog),
		handlers.NewPayment(a.payments),
		handlers.NewSearch(a.catalog),
		handlers.NewAnalytics(a.catalog),
		handlers.NewAdmin(a.auth, a.catalog, a.payments),
		handlers.NewPublic(a.catalog),
		handlers.NewWebhooks(a.payments),
		handlers.NewSystem("testing", "/api/v1"),
	}
	web := handlers.NewWeb(handlers.WebConfig{
		Auth:      a.auth,
		Catalog:   a.catalog,
		Payments:  a.payments,
		Languages: langs,
		BaseURL:   "https://cineverse.test",
	})

	kernel := internal.New(
		internal.WithSessionManager(a.sm),
		internal.WithErrorHandler(internal.DefaultErrorHandler(false, handlers.MapError)),
		internal.WithNamedMiddleware("auth", middlewares.Auth(a.auth, middlewares.WithRememberCookie(handlers.RememberCookie))),
		internal.WithNamedMiddleware("admin", middlewares.Admin()),
		internal.WithNamedMiddleware("guest", middlewares.Guest("")),
		internal.WithNamedMiddleware("csrf", middlewares.CSRF()),
		internal.WithNamedMiddleware("locale", middlewares.Locale(langs, messages)),
		internal.WithHandlers(routes(func(r *internal.Router) {
			r.Route("/api/v1", func(r *internal.Router) {
				for _, h := range api {
					h.Routes(r)
				}
			})
			r.Group(internal.GroupAttrs{Middleware: []string{"locale"}}, web.Routes)
		})),
	)
	a.r = kernel.Router()
	return a
}

func (a *app) register(t *testing.T, name string) *auth.User {
	t.Helper()
	u, err := a.auth.Register(context.Background(), auth.RegisterInput{
		Username:  name,
		Email:     name + "@example.com",
		Password:  password,
		FirstName: strings.ToUpper(name[:1]) + name[1:],
		LastName:  "Tester",
	})
	require.NoError(t, err)
	return u
}

func (a *app) token(t *testing.T, u *auth.User) string {
	t.Helper()
	token, _, err := a.auth.Tokens().Issue(u.ID, u.Username, u.Role)
	require.NoError(t, err)
	return token
}

func (a *app) movie(t *testing.T, title string) *catalog.Movie {
	t.Helper()
	m, err := a.catalog.CreateMovie(context.Background(), catalog.MovieInput{
		Title:       title,
		Overview:    "A movie about " + title,
		ReleaseDate: "2024-05-01",
		Popularity:  50,
		VoteAverage: 7.5,
	})
	require.NoError(t, err)
	return m
}

// request is a test request description.
type request struct {
	cookies []*http.Cookie
	method  string
	target  string
	body    string
	headers []string
}

func (rq request) build() *http.Request {
	method := rq.method
	if method == "" {
		method = http.MethodGet
	}
	req := httptest.NewRequest(method, rq.target, strings.NewReader(rq.body))
	for i := 0; i+1 < len(rq.headers); i += 2 {
		req.Header.Set(rq.headers[i], rq.headers[i+1])
	}
	for _, ck := range rq.cookies {
		req.AddCookie(ck)
	}
	return req
}

func (a *app) do(t *testing.T, rq request) *internal.Response {
	t.Helper()
	snap, err := internal.NewRequest(rq.build())
	require.NoError(t, err)
	return a.r.Dispatch(snap)
}

// api sends a JSON request, authenticated when token is not empty.
func (a *app) api(t *testing.T, method, target, token string, body any) *internal.Response {
	t.Helper()
	rq := request{method: method, target: target, headers: []string{"Accept", "application/json"}}
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rq.body = string(b)
		rq.headers = append(rq.headers, "Content-Type", "application/json")
	}
	if token != "" {
		rq.headers = append(rq.headers, "Authorization", "Bearer "+token)
	}
	return a.do(t, rq)
}

// envelope decodes a JSON body.
type envelope struct {
	Data       json.RawMessage     `json:"data"`
	Errors     map[string][]string `json:"errors"`
	Message    string              `json:"message"`
	StatusCode int                 `json:"status_code"`
	Success    bool                `json:"success"`
	Error      bool                `json:"error"`
}

func decode(t *testing.T, res *internal.Response) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(res.Body(), &env), string(res.Body()))
	return env
}

func data[T any](t *testing.T, res *internal.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(decode(t, res).Data, &out))
	return out
}

// browser keeps cookies across web requests.
type browser struct {
	app     *app
	cookies map[string]*http.Cookie
}

func (a *app) browser() *browser {
	return &browser{app: a, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(t *testing.T, rq request) *internal.Response {
	t.Helper()
	for _, ck := range b.cookies {
		rq.cookies = append(rq.cookies, ck)
	}
	res := b.app.do(t, rq)
	for _, ck := range res.Cookies() {
		if ck.MaxAge < 0 {
			delete(b.cookies, ck.Name)
			continue
		}
		b.cookies[ck.Name] = ck
	}
	return res
}

func (b *browser) get(t *testing.T, target string, headers ...string) *internal.Response {
	t.Helper()
	return b.do(t, request{target: target, headers: headers})
}

var csrfInput = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

// post loads page, then submits form to action with the page's CSRF token.
func (b *browser) post(t *testing.T, page, action string, form url.Values) *internal.Response {
	t.Helper()
	res := b.get(t, page)
	require.Equal(t, http.StatusOK, res.Status(), string(res.Body()))
	m := csrfInput.FindSubmatch(res.Body())
	require.NotNil(t, m, "no csrf token on %s", page)

	form.Set("csrf_token", string(m[1]))
	return b.do(t, request{
		method:  http.MethodPost,
		target:  action,
		body:    form.Encode(),
		headers: []string{"Content-Type", "application/x-www-form-urlencoded"},
	})
}
