package middlewares

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/cineverse/internal"
)

// Timeout bounds the request context with a deadline. Handlers observe it
// through the Context they receive, so database and cache calls made with
// c are cancelled once the deadline passes. A handler that fails after the
// deadline is reported as a *TimeoutError. A non-positive duration
// disables the middleware.
//
// The handler runs on the request goroutine; work that ignores the context
// is not interrupted.
func Timeout(d time.Duration) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		if d <= 0 {
			return next
		}
		return func(c internal.Context) error {
			parent := c.Context()
			ctx, cancel := context.WithTimeout(parent, d)
			defer cancel()

			c.SetContext(ctx)
			err := next(c)
			c.SetContext(parent)

			if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				c.LogWarn("request timeout", "timeout", d.String())
				return &TimeoutError{Duration: d}
			}
			return err
		}
	}
}
