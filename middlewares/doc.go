// Package middlewares provides the named middleware of the CineVerse HTTP
// kernel. Each constructor returns an internal.Middleware; the application
// registers it under a name and routes refer to it by that name:
//
//	internal.New(
//	    internal.WithNamedMiddleware("auth", middlewares.Auth(authManager)),
//	    internal.WithNamedMiddleware("admin", middlewares.Admin()),
//	    internal.WithNamedMiddleware("throttle", middlewares.Throttle(limiter, nil)),
//	)
//
// # Cross-cutting
//
// RequestID tags a request with an upstream or generated ULID, Recover
// turns panics into *PanicError, Timeout bounds the request context and
// Logging writes one record per request. HTTPError maps PanicError and
// TimeoutError for the error handler.
//
// # Access control
//
// Auth accepts a bearer access token, a signed-in session or a remember-me
// cookie, in that order. Admin requires the admin role and Guest keeps
// signed-in users away from the login pages. GetIdentity returns the
// principal.
//
// # Web
//
// CORS answers preflights and decorates API responses. CSRF guards
// state-changing form posts with the session token. Locale resolves the
// request language from the session, the lang cookie or query parameter,
// and Accept-Language.
//
// # Throttling
//
// Throttle keeps a token bucket per client IP:
//
//	limiter := middlewares.NewLimiter(100, time.Hour)
//	mw := middlewares.Throttle(limiter, middlewares.ByClientIP)
//
// Call Limiter.Sweep periodically to drop idle buckets.
package middlewares
