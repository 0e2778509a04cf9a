package middlewares_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/pkg/cache"
	"github.com/dmitrymomot/cineverse/pkg/logger"
	"github.com/dmitrymomot/cineverse/pkg/session"
)

type routes func(r *internal.Router)

func (f routes) Routes(r *internal.Router) { f(r) }

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
	var req *http.Request
	if rq.body == "" {
		req = httptest.NewRequest(method, rq.target, nil)
	} else {
		req = httptest.NewRequest(method, rq.target, strings.NewReader(rq.body))
	}
	for i := 0; i+1 < len(rq.headers); i += 2 {
		req.Header.Set(rq.headers[i], rq.headers[i+1])
	}
	for _, ck := range rq.cookies {
		req.AddCookie(ck)
	}
	return req
}

func do(t *testing.T, r *internal.Router, rq request) *internal.Response {
	t.Helper()
	snap, err := internal.NewRequest(rq.build())
	require.NoError(t, err)
	return r.Dispatch(snap)
}

func get(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func decodeJSON(t *testing.T, res *internal.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(res.Body(), &out))
	return out
}

func okHandler(c internal.Context) error {
	return c.String(http.StatusOK, "ok")
}

func memorySessions() session.Store {
	return session.NewCacheStore(cache.NewMemory[session.Record](), cache.NewMemory[string]())
}

// captureLogger returns a JSON logger writing to buf, decorated with extractors.
func captureLogger(buf *bytes.Buffer, extractors ...logger.ContextExtractor) *slog.Logger {
	h := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(logger.NewLogHandlerDecorator(h, extractors...))
}
