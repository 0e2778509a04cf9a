package cineverse_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cineverse"
	"github.com/dmitrymomot/cineverse/pkg/logger"
	"github.com/dmitrymomot/cineverse/pkg/mailer"
)

const appKey = "0123456789abcdef0123456789abcdef"

type outbox struct {
	mu   sync.Mutex
	sent []*mailer.Email
}

func (o *outbox) Send(_ context.Context, e *mailer.Email) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, e)
	return nil
}

func (o *outbox) last() *mailer.Email {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		return nil
	}
	return o.sent[len(o.sent)-1]
}

func testConfig(t *testing.T, extra map[string]string) cineverse.Config {
	t.Helper()
	vars := map[string]string{
		"APP_KEY":           appKey,
		"APP_URL":           "https://cineverse.test",
		"DB_CONNECTION":     "sqlite",
		"DB_DSN":            ":memory:",
		"DB_RETRY_ATTEMPTS": "1",
		"CACHE_DRIVER":      "memory",
		"SESSION_DRIVER":    "database",
		"JWT_SECRET":        "integration-test-secret",
		"AUTH_BCRYPT_COST":  "4",
		"LOG_LEVEL":         "error",
	}
	for k, v := range extra {
		vars[k] = v
	}
	cfg, err := env.ParseAsWithOptions[cineverse.Config](env.Options{Environment: vars})
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

func newApp(t *testing.T, extra map[string]string) (*cineverse.App, *outbox) {
	t.Helper()
	box := &outbox{}
	a, err := cineverse.New(context.Background(), testConfig(t, extra),
		cineverse.WithMailSender(box),
		cineverse.WithLogger(logger.NewNope()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	_, err = a.Migrate(context.Background())
	require.NoError(t, err)
	return a, box
}

func send(a *cineverse.App, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

func TestApp(t *testing.T) {
	t.Parallel()

	a, box := newApp(t, nil)

	t.Run("readiness", func(t *testing.T) {
		rec := send(a, http.MethodGet, "/health/ready?format=json", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "database")
	})

	t.Run("register and me", func(t *testing.T) {
		rec := send(a, http.MethodPost, "/api/v1/auth/register", `{
			"username": "marie",
			"email": "marie@example.com",
			"password": "longenough1",
			"first_name": "Marie",
			"last_name": "Uwase"
		}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

		var out struct {
			Data struct {
				Token string `json:"token"`
			} `json:"data"`
			Success bool `json:"success"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.True(t, out.Success)
		require.NotEmpty(t, out.Data.Token)

		rec = send(a, http.MethodGet, "/api/v1/auth/me", "", "Authorization", "Bearer "+out.Data.Token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), "marie@example.com")

		rec = send(a, http.MethodGet, "/api/v1/auth/me", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("register and login with the minimal fields", func(t *testing.T) {
		rec := send(a, http.MethodPost, "/api/v1/auth/register",
			`{"username": "alice", "email": "a@x.com", "password": "longenough1"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rec = send(a, http.MethodPost, "/api/v1/auth/login",
			`{"identifier": "alice", "password": "longenough1"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var out struct {
			Data struct {
				User  map[string]any `json:"user"`
				Token string         `json:"token"`
			} `json:"data"`
			Success bool `json:"success"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.True(t, out.Success)
		require.NotEmpty(t, out.Data.Token)
		assert.Equal(t, "alice", out.Data.User["username"])
		assert.NotContains(t, out.Data.User, "password")
	})

	t.Run("validation errors in the requested language", func(t *testing.T) {
		rec := send(a, http.MethodPost, "/api/v1/auth/register", `{"email": "fr@example.com"}`,
			"Accept-Language", "fr-FR,fr;q=0.9")
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		assert.Equal(t, "fr", rec.Header().Get("Content-Language"))

		var out struct {
			Errors map[string][]string `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Equal(t, []string{"Le champ username est obligatoire."}, out.Errors["username"])

		rec = send(a, http.MethodPost, "/api/v1/auth/register", `{"email": "fr@example.com"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "The username field is required.")
	})

	t.Run("password reset mail links to the site", func(t *testing.T) {
		rec := send(a, http.MethodPost, "/api/v1/auth/register", `{
			"username": "jean",
			"email": "jean@example.com",
			"password": "longenough1",
			"first_name": "Jean",
			"last_name": "Habimana"
		}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rec = send(a, http.MethodPost, "/api/v1/auth/forgot-password", `{"email":"jean@example.com"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		mail := box.last()
		require.NotNil(t, mail)
		require.Len(t, mail.To, 1)
		assert.Contains(t, mail.To[0], "jean@example.com")
		assert.Contains(t, mail.HTML, "https://cineverse.test/auth/reset-password/")
	})

	t.Run("cors preflight", func(t *testing.T) {
		rec := send(a, http.MethodOptions, "/api/v1/movies", "",
			"Origin", "https://app.example.com",
			"Access-Control-Request-Method", http.MethodGet,
		)
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodGet)
	})

	t.Run("home page", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Welcome to CineVerse")
	})

	t.Run("garbage collection", func(t *testing.T) {
		require.NoError(t, a.CollectGarbage(context.Background()))
	})

	t.Run("migration status", func(t *testing.T) {
		status, err := a.MigrationStatus(context.Background())
		require.NoError(t, err)
		require.NotEmpty(t, status)
	})
}

func TestThrottle(t *testing.T) {
	t.Parallel()

	a, _ := newApp(t, map[string]string{"RATE_LIMIT_REQUESTS": "2"})

	for range 2 {
		rec := send(a, http.MethodGet, "/api/v1/movies", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	rec := send(a, http.MethodGet, "/api/v1/movies", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Pages are not throttled.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	page := httptest.NewRecorder()
	a.Handler().ServeHTTP(page, req)
	assert.Equal(t, http.StatusOK, page.Code)
}

func TestClose(t *testing.T) {
	t.Parallel()

	box := &outbox{}
	a, err := cineverse.New(context.Background(), testConfig(t, nil), cineverse.WithMailSender(box))
	require.NoError(t, err)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
}

func TestConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(t, nil)
		assert.Equal(t, "CineVerse", cfg.App.Name)
		assert.Equal(t, []string{"en", "rw", "fr"}, cfg.App.Languages)
		assert.Equal(t, 100, cfg.HTTP.RateLimitRequests)
		assert.Equal(t, "sqlite", cfg.DB.Driver)
	})

	t.Run("short app key", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(t, nil)
		cfg.App.Key = "short"
		require.ErrorIs(t, cfg.Validate(), cineverse.ErrShortAppKey)
	})

	t.Run("jobs need postgres", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(t, nil)
		cfg.Jobs.Enabled = true
		require.ErrorIs(t, cfg.Validate(), cineverse.ErrJobsNeedPgsql)

		_, err := cineverse.New(context.Background(), cfg)
		require.ErrorIs(t, err, cineverse.ErrJobsNeedPgsql)
	})

	t.Run("redis driver needs a url", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(t, nil)
		cfg.Cache.Driver = "redis"
		require.ErrorIs(t, cfg.Validate(), cineverse.ErrRedisNotEnabled)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("APP_KEY", appKey)
	t.Setenv("DB_CONNECTION", "sqlite")
	t.Setenv("DB_DSN", ":memory:")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SUPPORTED_LANGUAGES", "en,fr")

	cfg, err := cineverse.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "fr"}, cfg.App.Languages)
	assert.Equal(t, ":memory:", cfg.DB.DSN)

	t.Setenv("APP_KEY", "short")
	_, err = cineverse.LoadConfig()
	require.ErrorIs(t, err, cineverse.ErrShortAppKey)
}
