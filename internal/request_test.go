package internal_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cineverse/internal"
)

func TestNewRequest(t *testing.T) {
	t.Parallel()

	t.Run("json object body", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login?page=2", strings.NewReader(`{"email":"a@b.c","remember":true,"age":30}`))
		r.Header.Set("Content-Type", "application/json")

		req, err := internal.NewRequest(r)
		require.NoError(t, err)
		assert.Equal(t, http.MethodPost, req.Method())
		assert.Equal(t, "/api/v1/auth/login", req.Path())
		assert.Equal(t, "a@b.c", req.Input("email"))
		assert.Equal(t, "true", req.Input("remember"))
		assert.Equal(t, "30", req.Input("age"))
		assert.Equal(t, "2", req.Input("page"))
		assert.True(t, req.IsJSON())
		assert.True(t, req.Has("email"))
		assert.False(t, req.Has("password"))
		assert.JSONEq(t, `{"email":"a@b.c","remember":true,"age":30}`, string(req.RawBody()))
	})

	t.Run("non-object json stays raw", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`[1,2]`))
		r.Header.Set("Content-Type", "application/json")

		req, err := internal.NewRequest(r)
		require.NoError(t, err)
		assert.Empty(t, req.Body())
		assert.Equal(t, "[1,2]", string(req.RawBody()))
	})

	t.Run("urlencoded form", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/login?email=query@x.y", strings.NewReader("email=form@x.y&genres=1&genres=2"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		req, err := internal.NewRequest(r)
		require.NoError(t, err)
		assert.Equal(t, "query@x.y", req.Input("email"), "query wins in Input")
		assert.Equal(t, "form@x.y", req.All()["email"], "body wins in All")
		assert.Equal(t, []string{"1", "2"}, req.Body()["genres"])
		assert.Equal(t, map[string]any{"email": "form@x.y"}, req.Only("email", "missing"))
	})

	t.Run("multipart upload", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("title", "Avatar"))
		fw, err := mw.CreateFormFile("avatar", "me.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte("png-bytes"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		r := httptest.NewRequest(http.MethodPost, "/user/avatar", &buf)
		r.Header.Set("Content-Type", mw.FormDataContentType())

		req, err := internal.NewRequest(r)
		require.NoError(t, err)
		assert.Equal(t, "Avatar", req.Input("title"))
		require.True(t, req.HasFile("avatar"))
		assert.Equal(t, "me.png", req.File("avatar").Filename)
		assert.Nil(t, req.File("other"))
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 20)))

		_, err := internal.NewRequestLimit(r, 10)
		require.ErrorIs(t, err, internal.ErrBodyTooLarge)
	})

	t.Run("headers and cookies", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "10.0.0.1:5000"
		r.Header.Set("User-Agent", "curl/8")
		r.Header.Set("Referer", "/movies")
		r.Header.Set("X-Forwarded-Proto", "https")
		r.AddCookie(&http.Cookie{Name: "cineverse_session", Value: "tok"})

		req, err := internal.NewRequest(r)
		require.NoError(t, err)
		assert.Equal(t, "curl/8", req.UserAgent())
		assert.Equal(t, "/movies", req.Referrer())
		assert.True(t, req.IsSecure())
		v, ok := req.Cookie("cineverse_session")
		assert.True(t, ok)
		assert.Equal(t, "tok", v)
		assert.Equal(t, "10.0.0.1:5000", req.RemoteAddr())
		assert.False(t, req.ExpectsJSON())
	})

	t.Run("expects json", func(t *testing.T) {
		t.Parallel()
		for name, header := range map[string][2]string{
			"ajax":   {"X-Requested-With", "XMLHttpRequest"},
			"accept": {"Accept", "text/html, application/json;q=0.9"},
		} {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set(header[0], header[1])
			req, err := internal.NewRequest(r)
			require.NoError(t, err)
			assert.True(t, req.ExpectsJSON(), name)
		}
	})

	t.Run("snapshot is isolated from later header changes", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Trace", "one")

		req, err := internal.NewRequest(r)
		require.NoError(t, err)
		r.Header.Set("X-Trace", "two")
		assert.Equal(t, "one", req.Header("X-Trace"))

		h := req.Headers()
		h.Set("X-Trace", "three")
		assert.Equal(t, "one", req.Header("X-Trace"))
	})
}
