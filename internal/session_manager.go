package internal

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/cineverse/pkg/id"
	"github.com/dmitrymomot/cineverse/pkg/logger"
	"github.com/dmitrymomot/cineverse/pkg/session"
)

// Default session configuration.
const (
	DefaultSessionCookie   = "cineverse_session"
	DefaultSessionLifetime = 120 * time.Minute
)

// SessionManager handles session lifecycle and the session cookie.
type SessionManager struct {
	store    session.Store
	logger   *slog.Logger
	now      func() time.Time
	cookie   string
	domain   string
	path     string
	lifetime time.Duration
	sameSite http.SameSite
	secure   bool
	httpOnly bool
}

// SessionOption configures the SessionManager.
type SessionOption func(*SessionManager)

// NewSessionManager creates a new SessionManager with the given store and options.
func NewSessionManager(store session.Store, opts ...SessionOption) *SessionManager {
	sm := &SessionManager{
		store:    store,
		logger:   logger.NewNope(),
		now:      time.Now,
		cookie:   DefaultSessionCookie,
		lifetime: DefaultSessionLifetime,
		path:     "/",
		httpOnly: true,
		sameSite: http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// WithSessionConfig applies cookie name, domain, lifetime and secure flag
// from a session.Config.
func WithSessionConfig(cfg session.Config) SessionOption {
	return func(sm *SessionManager) {
		if cfg.Cookie != "" {
			sm.cookie = cfg.Cookie
		}
		if cfg.Lifetime > 0 {
			sm.lifetime = cfg.Lifetime
		}
		sm.domain = cfg.Domain
		sm.secure = cfg.Secure
	}
}

// WithSessionCookieName sets the session cookie name.
func WithSessionCookieName(name string) SessionOption {
	return func(sm *SessionManager) {
		if name != "" {
			sm.cookie = name
		}
	}
}

// WithSessionLifetime sets how long an idle session stays valid.
func WithSessionLifetime(d time.Duration) SessionOption {
	return func(sm *SessionManager) {
		if d > 0 {
			sm.lifetime = d
		}
	}
}

func WithSessionSecure(secure bool) SessionOption {
	return func(sm *SessionManager) {
		sm.secure = secure
	}
}

func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return func(sm *SessionManager) {
		sm.sameSite = sameSite
	}
}

func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(sm *SessionManager) {
		if l != nil {
			sm.logger = l
		}
	}
}

func WithSessionClock(now func() time.Time) SessionOption {
	return func(sm *SessionManager) {
		if now != nil {
			sm.now = now
		}
	}
}

// CookieName returns the session cookie name.
func (sm *SessionManager) CookieName() string { return sm.cookie }

// Store returns the underlying session store.
func (sm *SessionManager) Store() session.Store { return sm.store }

// Load returns the session named by the request cookie. A missing cookie,
// an unknown token or an expired session all yield (nil, nil).
func (sm *SessionManager) Load(ctx context.Context, req *Request) (*session.Session, error) {
	token, ok := req.Cookie(sm.cookie)
	if !ok || token == "" {
		return nil, nil
	}
	sess, err := sm.store.Get(ctx, token)
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrExpired):
		return nil, nil
	case err != nil:
		return nil, err
	}
	if sess.IsExpired() {
		return nil, nil
	}
	return sess, nil
}

// Create persists a new anonymous session for the request.
func (sm *SessionManager) Create(ctx context.Context, req *Request) (*session.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	now := sm.now()
	sess := session.New(id.NewULID(), token, now.Add(sm.lifetime))
	sess.CreatedAt = now
	sess.LastActiveAt = now
	sess.IP = req.ClientIP()
	sess.UserAgent = req.UserAgent()

	if err := sm.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	sess.ClearNew()
	sess.ClearDirty()
	return sess, nil
}

// Save persists a dirty session, sliding its expiry forward.
func (sm *SessionManager) Save(ctx context.Context, sess *session.Session) error {
	if sess == nil || !sess.IsDirty() {
		return nil
	}
	now := sm.now()
	sess.LastActiveAt = now
	sess.ExpiresAt = now.Add(sm.lifetime)
	if err := sm.store.Update(ctx, sess); err != nil {
		return err
	}
	sess.ClearDirty()
	return nil
}

// Rotate issues a new token for the session. Called on login so a token
// known before authentication is useless afterwards.
func (sm *SessionManager) Rotate(ctx context.Context, sess *session.Session) error {
	old := sess.Token
	token, err := generateToken()
	if err != nil {
		return err
	}
	sess.Token = token
	sess.RegenerateCSRF()
	sess.MarkDirty()
	if err := sm.store.Update(ctx, sess); err != nil {
		sess.Token = old
		return err
	}
	sess.ClearDirty()
	return nil
}

// Destroy deletes the session from the store.
func (sm *SessionManager) Destroy(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return nil
	}
	return sm.store.Delete(ctx, sess.ID)
}

// GC removes expired sessions when the store supports it.
func (sm *SessionManager) GC(ctx context.Context) (int, error) {
	c, ok := sm.store.(session.Collector)
	if !ok {
		return 0, nil
	}
	n, err := c.GC(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		sm.logger.InfoContext(ctx, "expired sessions removed", slog.Int("count", n))
	}
	return n, nil
}

// SetCookie writes the session cookie.
func (sm *SessionManager) SetCookie(w http.ResponseWriter, sess *session.Session) {
	http.SetCookie(w, sm.newCookie(sess.Token, int(sm.lifetime/time.Second)))
}

// ClearCookie expires the session cookie.
func (sm *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, sm.newCookie("", -1))
}

func (sm *SessionManager) newCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sm.cookie,
		Value:    value,
		Path:     sm.path,
		Domain:   sm.domain,
		MaxAge:   maxAge,
		Secure:   sm.secure,
		HttpOnly: sm.httpOnly,
		SameSite: sm.sameSite,
	}
}

// generateToken creates a cryptographically secure random token.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("internal: generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
