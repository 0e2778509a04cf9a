package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cineverse/pkg/logger"
)

type ctxKey struct{}

func requestID(ctx context.Context) (slog.Attr, bool) {
	v, ok := ctx.Value(ctxKey{}).(string)
	if !ok {
		return slog.Attr{}, false
	}
	return slog.String("request_id", v), true
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("json with extractor", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log, flush, err := logger.Open(logger.Config{Level: "info", Format: "json"}, &buf, requestID, nil)
		require.NoError(t, err)
		defer flush()

		ctx := context.WithValue(context.Background(), ctxKey{}, "01J0")
		log.DebugContext(ctx, "hidden")
		log.With("component", "catalog").InfoContext(ctx, "movie created", slog.Int64("movie_id", 7))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 1)
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
		assert.Equal(t, "movie created", rec["msg"])
		assert.Equal(t, "catalog", rec["component"])
		assert.Equal(t, "01J0", rec["request_id"])
		assert.EqualValues(t, 7, rec["movie_id"])
	})

	t.Run("text debug", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log, _, err := logger.Open(logger.Config{Level: "DEBUG", Format: "text"}, &buf)
		require.NoError(t, err)
		log.Debug("cache miss", "key", "movies:page:1")
		assert.Contains(t, buf.String(), "msg=\"cache miss\"")
		assert.Contains(t, buf.String(), "key=movies:page:1")
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()
		_, _, err := logger.Open(logger.Config{Level: "loud"}, &bytes.Buffer{})
		require.Error(t, err)
		_, _, err = logger.Open(logger.Config{Level: "info", Format: "xml"}, &bytes.Buffer{})
		require.Error(t, err)
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	lvl, err := logger.ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	lvl, err = logger.ParseLevel(" Error ")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, lvl)
}

func TestNope(t *testing.T) {
	t.Parallel()
	assert.False(t, logger.NewNope().Enabled(context.Background(), slog.LevelError))
}
