package cache_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cineverse/pkg/cache"
)

func TestMemcacheExpiration(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)

	t.Run("never expires for non-positive ttl", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, int32(0), cache.MemcacheExpiration(now, 0))
		require.Equal(t, int32(0), cache.MemcacheExpiration(now, -time.Second))
	})

	t.Run("uses relative seconds up to thirty days", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, int32(3600), cache.MemcacheExpiration(now, time.Hour))
		require.Equal(t, int32(30*24*3600), cache.MemcacheExpiration(now, 30*24*time.Hour))
	})

	t.Run("rounds sub-second ttl up to one second", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, int32(1), cache.MemcacheExpiration(now, 10*time.Millisecond))
	})

	t.Run("switches to a unix timestamp beyond thirty days", func(t *testing.T) {
		t.Parallel()
		ttl := 31 * 24 * time.Hour
		require.Equal(t, int32(now.Add(ttl).Unix()), cache.MemcacheExpiration(now, ttl))
	})
}

func TestValidMemcacheKey(t *testing.T) {
	t.Parallel()

	require.True(t, cache.ValidMemcacheKey("cv:sessions:abc"))
	require.False(t, cache.ValidMemcacheKey(""))
	require.False(t, cache.ValidMemcacheKey("has space"))
	require.False(t, cache.ValidMemcacheKey("tab\tkey"))
	require.False(t, cache.ValidMemcacheKey(strings.Repeat("k", 251)))
}
