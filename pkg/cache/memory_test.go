package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cineverse/pkg/cache"
)

func TestMemory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("returns ErrNotFound for missing key", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		defer c.Close()

		_, err := c.Get(ctx, "missing")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("returns stored value and overwrites", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int]()
		defer c.Close()

		require.NoError(t, c.Set(ctx, "k", 1, time.Minute))
		require.NoError(t, c.Set(ctx, "k", 2, time.Minute))

		v, err := c.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, 2, v)
		require.Equal(t, 1, c.Len())
	})

	t.Run("expires entries after their ttl", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](cache.WithCleanupInterval(0))
		defer c.Close()

		require.NoError(t, c.Set(ctx, "k", "v", 20*time.Millisecond))
		time.Sleep(40 * time.Millisecond)

		_, err := c.Get(ctx, "k")
		require.ErrorIs(t, err, cache.ErrNotFound)

		ok, err := c.Has(ctx, "k")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("zero ttl uses the default and negative never expires", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](
			cache.WithDefaultTTL(20*time.Millisecond),
			cache.WithCleanupInterval(0),
		)
		defer c.Close()

		require.NoError(t, c.Set(ctx, "default", "v", 0))
		require.NoError(t, c.Set(ctx, "forever", "v", -1))
		time.Sleep(40 * time.Millisecond)

		_, err := c.Get(ctx, "default")
		require.ErrorIs(t, err, cache.ErrNotFound)
		v, err := c.Get(ctx, "forever")
		require.NoError(t, err)
		require.Equal(t, "v", v)
	})

	t.Run("evicts the least recently used entry at capacity", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int](cache.WithMaxEntries(2))
		defer c.Close()

		require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
		require.NoError(t, c.Set(ctx, "b", 2, time.Minute))
		_, err := c.Get(ctx, "a")
		require.NoError(t, err)
		require.NoError(t, c.Set(ctx, "c", 3, time.Minute))

		_, err = c.Get(ctx, "b")
		require.ErrorIs(t, err, cache.ErrNotFound)
		_, err = c.Get(ctx, "a")
		require.NoError(t, err)
		require.Equal(t, 2, c.Len())
	})

	t.Run("fires the evict callback on delete and clear", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int]()
		defer c.Close()

		var evicted []string
		var mu sync.Mutex
		c.SetEvictCallback(func(key string, _ int) {
			mu.Lock()
			evicted = append(evicted, key)
			mu.Unlock()
		})

		require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
		require.NoError(t, c.Set(ctx, "b", 2, time.Minute))
		require.NoError(t, c.Delete(ctx, "a"))
		require.NoError(t, c.Clear(ctx))

		mu.Lock()
		defer mu.Unlock()
		require.ElementsMatch(t, []string{"a", "b"}, evicted)
		require.Zero(t, c.Len())
	})

	t.Run("gc drops only expired entries", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int](cache.WithCleanupInterval(0))
		defer c.Close()

		require.NoError(t, c.Set(ctx, "short", 1, 10*time.Millisecond))
		require.NoError(t, c.Set(ctx, "long", 2, time.Minute))
		time.Sleep(30 * time.Millisecond)

		n, err := c.GC(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, n)
		require.Equal(t, 1, c.Len())
	})

	t.Run("janitor collects in the background", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int](cache.WithCleanupInterval(10 * time.Millisecond))
		defer c.Close()

		require.NoError(t, c.Set(ctx, "k", 1, 5*time.Millisecond))
		require.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 10*time.Millisecond)
	})

	t.Run("rejects writes after close", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int]()
		require.NoError(t, c.Close())
		require.NoError(t, c.Close())

		require.ErrorIs(t, c.Set(ctx, "k", 1, 0), cache.ErrClosed)
		require.ErrorIs(t, c.Delete(ctx, "k"), cache.ErrClosed)
		require.ErrorIs(t, c.Clear(ctx), cache.ErrClosed)
	})

	t.Run("is safe for concurrent use", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int](cache.WithMaxEntries(50))
		defer c.Close()

		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := range 100 {
					key := string(rune('a' + (i+j)%26))
					_ = c.Set(ctx, key, j, time.Minute)
					_, _ = c.Get(ctx, key)
				}
			}()
		}
		wg.Wait()
		require.LessOrEqual(t, c.Len(), 50)
	})
}

func TestGetOrSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("computes on miss and serves the cached value after", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		defer c.Close()

		var calls atomic.Int32
		fn := func(context.Context) (string, time.Duration, error) {
			calls.Add(1)
			return "computed", time.Minute, nil
		}

		for range 3 {
			v, err := cache.GetOrSet(ctx, c, "k", fn)
			require.NoError(t, err)
			require.Equal(t, "computed", v)
		}
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("does not cache errors", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		defer c.Close()

		boom := errors.New("boom")
		_, err := cache.GetOrSet(ctx, c, "k", func(context.Context) (string, time.Duration, error) {
			return "", 0, boom
		})
		require.ErrorIs(t, err, boom)

		ok, err := c.Has(ctx, "k")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("shares one computation between concurrent misses", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int]()
		defer c.Close()

		var calls atomic.Int32
		release := make(chan struct{})
		fn := func(context.Context) (int, time.Duration, error) {
			calls.Add(1)
			<-release
			return 7, time.Minute, nil
		}

		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := cache.GetOrSet(ctx, c, "shared", fn)
				require.NoError(t, err)
				require.Equal(t, 7, v)
			}()
		}
		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		require.Equal(t, int32(1), calls.Load())
	})
}
