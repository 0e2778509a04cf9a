package middlewares

import (
	"net/http"

	"github.com/dmitrymomot/cineverse/internal"
)

// Default CSRF token locations.
const (
	DefaultCSRFField  = "csrf_token"
	DefaultCSRFHeader = "X-CSRF-Token"
)

// CSRFConfig configures the CSRF middleware.
type CSRFConfig struct {
	Field  string
	Header string
}

// CSRFOption configures CSRFConfig.
type CSRFOption func(*CSRFConfig)

// WithCSRFField sets the form field carrying the token.
func WithCSRFField(name string) CSRFOption {
	return func(cfg *CSRFConfig) {
		if name != "" {
			cfg.Field = name
		}
	}
}

// WithCSRFHeader sets the header carrying the token.
func WithCSRFHeader(name string) CSRFOption {
	return func(cfg *CSRFConfig) {
		if name != "" {
			cfg.Header = name
		}
	}
}

// CSRF checks the session token on state-changing requests. Safe methods
// pass through and make sure the session has a token for forms to embed.
// The token is read from the form field, then the header; a missing
// session or a mismatch is rejected with 403.
func CSRF(opts ...CSRFOption) internal.Middleware {
	cfg := &CSRFConfig{Field: DefaultCSRFField, Header: DefaultCSRFHeader}
	for _, opt := range opts {
		opt(cfg)
	}
	extract := internal.NewExtractor(
		internal.FromInput(cfg.Field),
		internal.FromHeader(cfg.Header),
	)

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			switch c.Request().Method() {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				sess, err := c.StartSession()
				if err != nil {
					return err
				}
				sess.CSRFToken()
				return next(c)
			}

			sess, err := c.Session()
			if err != nil {
				return err
			}
			token, _ := extract.Extract(c)
			if sess == nil || !sess.VerifyCSRF(token) {
				c.LogWarn("csrf token mismatch", "path", c.Request().Path())
				return internal.ErrForbidden("CSRF token mismatch", internal.WithErrorCode("csrf_mismatch"))
			}
			return next(c)
		}
	}
}

// CSRFToken returns the session CSRF token for embedding in a form, or ""
// when the request has no session.
func CSRFToken(c internal.Context) string {
	sess, err := c.Session()
	if err != nil || sess == nil {
		return ""
	}
	return sess.CSRFToken()
}
