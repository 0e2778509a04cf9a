// Package logger builds the structured slog loggers used across CineVerse.
//
// Records are written as JSON (or text in development) and enriched with
// request-scoped attributes by ContextExtractor functions, such as the
// request ID and the authenticated user ID. When SENTRY_DSN is set, warnings
// and errors are forwarded to Sentry as well; errors become issues.
//
//	log, flush, err := logger.Open(cfg, os.Stdout,
//		middlewares.RequestIDExtractor(),
//		middlewares.UserIDExtractor(),
//	)
//	if err != nil {
//		return err
//	}
//	defer flush()
package logger
