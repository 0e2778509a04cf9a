package storage_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cineverse/pkg/storage"
)

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func upload(t *testing.T, filename string, data []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["avatar"][0]
}

func TestPutImage(t *testing.T) {
	t.Parallel()

	t.Run("stores a png under the prefix", func(t *testing.T) {
		t.Parallel()
		store := storage.NewMemory("http://cdn.test/")
		info, err := storage.PutImage(context.Background(), store, upload(t, "me.txt", pngHeader), "/avatars/", 1024)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(info.Key, "avatars/"))
		assert.True(t, strings.HasSuffix(info.Key, ".png"))
		assert.Equal(t, "image/png", info.ContentType)
		assert.Equal(t, "http://cdn.test/"+info.Key, info.URL)
		assert.Equal(t, int64(len(pngHeader)), info.Size)

		obj, ok := store.Get(info.Key)
		require.True(t, ok)
		assert.Equal(t, pngHeader, obj.Data)
		assert.Equal(t, "image/png", obj.ContentType)
	})

	t.Run("rejects non images", func(t *testing.T) {
		t.Parallel()
		store := storage.NewMemory("http://cdn.test")
		_, err := storage.PutImage(context.Background(), store, upload(t, "me.png", []byte("plain text, not a picture")), "avatars", 1024)
		require.ErrorIs(t, err, storage.ErrInvalidMIME)
		assert.Zero(t, store.Len())
	})

	t.Run("rejects oversized files", func(t *testing.T) {
		t.Parallel()
		store := storage.NewMemory("http://cdn.test")
		_, err := storage.PutImage(context.Background(), store, upload(t, "me.png", pngHeader), "avatars", 4)
		require.ErrorIs(t, err, storage.ErrFileTooLarge)
	})

	t.Run("rejects empty files", func(t *testing.T) {
		t.Parallel()
		store := storage.NewMemory("http://cdn.test")
		_, err := storage.PutImage(context.Background(), store, nil, "avatars", 0)
		require.ErrorIs(t, err, storage.ErrEmptyFile)
	})
}

func TestMemory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemory("http://cdn.test")
	require.NoError(t, store.Put(ctx, "a/b.png", strings.NewReader("x"), 1, "image/png"))
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, "http://cdn.test/a/b.png", store.URL("a/b.png"))
	assert.Equal(t, "a/b.png", storage.KeyFromURL(store, "http://cdn.test/a/b.png"))
	assert.Empty(t, storage.KeyFromURL(store, "http://elsewhere.test/a/b.png"))

	require.NoError(t, store.Delete(ctx, "a/b.png"))
	require.NoError(t, store.Delete(ctx, "a/b.png"))
	assert.Zero(t, store.Len())
}

func TestNewS3(t *testing.T) {
	t.Parallel()

	_, err := storage.NewS3(storage.Config{Bucket: "media"})
	require.ErrorIs(t, err, storage.ErrInvalidConfig)

	tests := []struct {
		name string
		cfg  storage.Config
		want string
	}{
		{"aws", storage.Config{Region: "eu-west-1"}, "https://media.s3.eu-west-1.amazonaws.com/avatars/x.png"},
		{"public url", storage.Config{PublicURL: "https://cdn.test/"}, "https://cdn.test/avatars/x.png"},
		{"minio path style", storage.Config{Endpoint: "http://minio:9000", PathStyle: true}, "http://minio:9000/media/avatars/x.png"},
		{"virtual host endpoint", storage.Config{Endpoint: "https://media.r2.test"}, "https://media.r2.test/avatars/x.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := tt.cfg
			cfg.Bucket, cfg.AccessKey, cfg.SecretKey = "media", "key", "secret"
			s, err := storage.NewS3(cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.URL("avatars/x.png"))
		})
	}
}
