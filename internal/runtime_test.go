package internal_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cineverse/internal"
)

func TestAppRun(t *testing.T) {
	t.Parallel()

	t.Run("stops background workers and runs hooks", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())

		var stopped, hooked atomic.Bool
		started := make(chan struct{})
		done := make(chan error, 1)
		go func() {
			done <- internal.New().Run(ctx, "127.0.0.1:0",
				internal.Background("gc", func(ctx context.Context) error {
					close(started)
					<-ctx.Done()
					stopped.Store(true)
					return ctx.Err()
				}),
				internal.ShutdownHook(func(context.Context) error {
					hooked.Store(true)
					return nil
				}),
			)
		}()

		<-started
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not stop")
		}
		assert.True(t, stopped.Load())
		assert.True(t, hooked.Load())
	})

	t.Run("failing worker stops the server", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("scheduler crashed")
		err := internal.New().Run(context.Background(), "127.0.0.1:0",
			internal.Background("scheduler", func(context.Context) error { return boom }),
			internal.ShutdownTimeout(time.Second),
		)
		require.ErrorIs(t, err, boom)
	})
}
