package middlewares

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/cineverse/internal"
)

// Logging writes one record per request with method, path, route, status
// and duration. 5xx answers are logged at error level, 4xx at warn and
// the rest at info. The status of a failed chain is the status the error
// handler will render, resolved with the same mappers.
func Logging(mappers ...internal.ErrorMapper) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status()
			if err != nil {
				status = internal.ResolveError(err, false, mappers...).Code
			}

			attrs := []any{
				slog.String("method", c.Request().Method()),
				slog.String("path", c.Request().Path()),
				slog.Int("status", status),
				slog.Duration("duration", time.Since(start)),
				slog.String("client_ip", c.Request().ClientIP()),
			}
			if route := c.Route(); route != nil {
				attrs = append(attrs, slog.String("route", route.Template()))
			}

			switch {
			case status >= http.StatusInternalServerError:
				if err != nil {
					attrs = append(attrs, slog.Any("error", err))
				}
				c.LogError("request failed", attrs...)
			case status >= http.StatusBadRequest:
				c.LogWarn("request rejected", attrs...)
			default:
				c.LogInfo("request completed", attrs...)
			}
			return err
		}
	}
}
