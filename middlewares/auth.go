package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/cineverse/internal"
	"github.com/dmitrymomot/cineverse/pkg/auth"
	"github.com/dmitrymomot/cineverse/pkg/jwt"
	"github.com/dmitrymomot/cineverse/pkg/logger"
	"github.com/dmitrymomot/cineverse/pkg/session"
)

// Identity is the authenticated principal of a request.
type Identity struct {
	// Claims is set when the request authenticated with an access token.
	Claims   *jwt.Claims
	Username string
	Role     string
	UserID   int64
}

// IsAdmin reports whether the principal has the admin role.
func (i *Identity) IsAdmin() bool { return i != nil && i.Role == auth.RoleAdmin }

type identityKey struct{}

// GetIdentity returns the principal set by Auth, or nil.
func GetIdentity(c internal.Context) *Identity {
	return IdentityFromContext(c)
}

// CurrentIdentity returns the principal set by Auth or, on routes without
// Auth, the one bound to an existing session. It never starts a session.
func CurrentIdentity(c internal.Context) *Identity {
	if id := GetIdentity(c); id != nil {
		return id
	}
	id, _ := sessionIdentity(c)
	return id
}

// IdentityFromContext returns the principal stored in ctx, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	v, _ := ctx.Value(identityKey{}).(*Identity)
	return v
}

// UserIDExtractor adds "user_id" to log records of authenticated requests.
func UserIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := IdentityFromContext(ctx); id != nil {
			return slog.Int64("user_id", id.UserID), true
		}
		return slog.Attr{}, false
	}
}

// DefaultLoginPath is where unauthenticated page requests are redirected.
const DefaultLoginPath = "/auth/login"

// IntendedURLKey is the session key holding the page to return to after login.
const IntendedURLKey = "url.intended"

// AuthConfig configures the Auth middleware.
type AuthConfig struct {
	Extractor      internal.Extractor
	LoginPath      string
	RememberCookie string
}

// AuthOption configures AuthConfig.
type AuthOption func(*AuthConfig)

// WithTokenExtractor sets where the access token is read from.
// The default is the Authorization: Bearer header.
func WithTokenExtractor(ext internal.Extractor) AuthOption {
	return func(cfg *AuthConfig) {
		cfg.Extractor = ext
	}
}

// WithLoginPath sets the redirect target for unauthenticated page requests.
func WithLoginPath(path string) AuthOption {
	return func(cfg *AuthConfig) {
		if path != "" {
			cfg.LoginPath = path
		}
	}
}

// WithRememberCookie enables remember-me logins from the named cookie.
func WithRememberCookie(name string) AuthOption {
	return func(cfg *AuthConfig) {
		cfg.RememberCookie = name
	}
}

// Auth requires an authenticated principal. It tries, in order:
//
//  1. an access token (rejected when invalid, expired or revoked),
//  2. a session bound to a user,
//  3. a remember-me cookie, which re-authenticates the session.
//
// Without a principal, JSON requests get 401 and page requests are
// redirected to the login page; GET requests remember their URL in the
// session under IntendedURLKey.
func Auth(m *auth.Manager, opts ...AuthOption) internal.Middleware {
	cfg := &AuthConfig{
		Extractor: internal.NewExtractor(internal.FromBearerToken()),
		LoginPath: DefaultLoginPath,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			if token, ok := cfg.Extractor.Extract(c); ok {
				claims, err := m.Authenticate(c, token)
				if errors.Is(err, auth.ErrInvalidToken) {
					return internal.ErrUnauthorized("Invalid or expired token", internal.WithError(err))
				}
				if err != nil {
					return err
				}
				c.Set(identityKey{}, &Identity{
					Claims:   claims,
					UserID:   claims.UserID,
					Username: claims.Username,
					Role:     claims.Role,
				})
				return next(c)
			}

			id, err := sessionIdentity(c)
			if err != nil {
				return err
			}
			if id == nil && cfg.RememberCookie != "" {
				if id, err = rememberIdentity(c, m, cfg.RememberCookie); err != nil {
					return err
				}
			}
			if id == nil {
				return unauthenticated(c, cfg.LoginPath)
			}

			c.Set(identityKey{}, id)
			return next(c)
		}
	}
}

// sessionIdentity reads the principal written by auth.Manager.Attach.
func sessionIdentity(c internal.Context) (*Identity, error) {
	sess, err := c.Session()
	if errors.Is(err, session.ErrNotConfigured) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sess == nil || !sess.IsAuthenticated() {
		return nil, nil
	}
	userID, err := strconv.ParseInt(*sess.UserID, 10, 64)
	if err != nil {
		return nil, nil
	}
	return &Identity{
		UserID:   userID,
		Username: session.ValueOr(sess, auth.SessionUsername, ""),
		Role:     session.ValueOr(sess, auth.SessionRole, auth.RoleUser),
	}, nil
}

func rememberIdentity(c internal.Context, m *auth.Manager, cookieName string) (*Identity, error) {
	token, err := c.Cookie(cookieName)
	if err != nil || token == "" {
		return nil, nil
	}
	user, err := m.LoginWithRememberToken(c, token)
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrAccountInactive) {
		c.DeleteCookie(cookieName)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := c.AuthenticateSession(strconv.FormatInt(user.ID, 10)); err != nil {
		if errors.Is(err, session.ErrNotConfigured) {
			return nil, nil
		}
		return nil, err
	}
	sess, err := c.Session()
	if err != nil {
		return nil, err
	}
	m.Attach(sess, user)

	return &Identity{UserID: user.ID, Username: user.Username, Role: user.Role}, nil
}

func unauthenticated(c internal.Context, loginPath string) error {
	if c.WantsJSON() {
		return internal.ErrUnauthorized("Authentication required")
	}
	if c.Request().Method() == http.MethodGet {
		if sess, err := c.StartSession(); err == nil {
			sess.SetValue(IntendedURLKey, c.Request().HTTP().URL.RequestURI())
		}
	}
	return c.Redirect(http.StatusFound, loginPath)
}

// Admin requires an admin principal. It must run after Auth.
func Admin() internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			id := GetIdentity(c)
			if id == nil {
				return internal.ErrUnauthorized("Authentication required")
			}
			if !id.IsAdmin() {
				return internal.ErrForbidden("Admin access required")
			}
			return next(c)
		}
	}
}

// DefaultHomePath is where Guest sends signed-in users.
const DefaultHomePath = "/dashboard"

// Guest admits only visitors without a signed-in session, e.g. on the login
// and register pages. Signed-in users are redirected to home, or get 403
// on JSON requests.
func Guest(home string) internal.Middleware {
	if home == "" {
		home = DefaultHomePath
	}
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			id, err := sessionIdentity(c)
			if err != nil {
				return err
			}
			if id == nil {
				return next(c)
			}
			if c.WantsJSON() {
				return internal.ErrForbidden("Already authenticated")
			}
			return c.Redirect(http.StatusFound, home)
		}
	}
}
