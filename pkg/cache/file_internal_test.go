package cache

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFileEvict(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f, err := NewFile[string](t.TempDir())
	require.NoError(t, err)

	t.Run("keeps an entry rewritten after the unlocked read", func(t *testing.T) {
		t.Parallel()
		// The caller saw an expired envelope; meanwhile a Set stored a
		// live one.
		require.NoError(t, f.Set(ctx, "fresh", "new value", time.Hour))

		env, err := f.evict("fresh", f.path("fresh"))
		require.NoError(t, err)
		var v string
		require.NoError(t, json.Unmarshal(env.Value, &v))
		require.Equal(t, "new value", v)

		_, err = os.Stat(f.path("fresh"))
		require.NoError(t, err)
		got, err := f.Get(ctx, "fresh")
		require.NoError(t, err)
		require.Equal(t, "new value", got)
	})

	t.Run("removes an entry that is still expired", func(t *testing.T) {
		t.Parallel()
		data, err := json.Marshal(fileEnvelope{
			Value:     json.RawMessage(`"old"`),
			ExpiresAt: time.Now().Add(-time.Minute).UnixMilli(),
		})
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(f.path("stale"), data, 0o600))

		_, err = f.evict("stale", f.path("stale"))
		require.ErrorIs(t, err, ErrNotFound)
		_, err = os.Stat(f.path("stale"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("already removed", func(t *testing.T) {
		t.Parallel()
		_, err := f.evict("gone", f.path("gone"))
		require.ErrorIs(t, err, ErrNotFound)
	})
}
