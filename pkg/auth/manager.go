package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/cineverse/pkg/cache"
	"github.com/dmitrymomot/cineverse/pkg/db"
	"github.com/dmitrymomot/cineverse/pkg/jwt"
	"github.com/dmitrymomot/cineverse/pkg/logger"
	"github.com/dmitrymomot/cineverse/pkg/session"
	"github.com/dmitrymomot/cineverse/pkg/validator"
)

// Session keys written by Attach.
const (
	SessionUserID   = "user_id"
	SessionUsername = "username"
	SessionRole     = "role"
)

// ResetRequestedMessage is the answer to every password reset request,
// whether or not the email belongs to an account.
const ResetRequestedMessage = "If the email exists, a reset link has been sent"

// Manager owns the account lifecycle.
type Manager struct {
	conn     *db.Conn
	tokens   *jwt.Service
	revoked  cache.Cache[string]
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
	cfg      Config

	dummyOnce sync.Once
	dummyHash []byte
}

// Option configures a Manager.
type Option func(*Manager)

// WithConfig replaces the default security policy.
func WithConfig(cfg Config) Option {
	return func(m *Manager) { m.cfg = cfg }
}

// WithNotifier sets where reset and verification tokens are delivered.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		if n != nil {
			m.notifier = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithClock overrides time.Now for lockout and token expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a Manager. revoked holds the jti denylist; a nil
// cache selects a process-local memory cache.
func NewManager(conn *db.Conn, tokens *jwt.Service, revoked cache.Cache[string], opts ...Option) *Manager {
	m := &Manager{
		conn:     conn,
		tokens:   tokens,
		revoked:  revoked,
		notifier: NopNotifier{},
		log:      logger.NewNope(),
		now:      time.Now,
		cfg:      DefaultConfig(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.revoked == nil {
		m.revoked = cache.NewMemory[string]()
	}
	if m.cfg.BcryptCost == 0 {
		m.cfg.BcryptCost = bcrypt.DefaultCost
	}
	return m
}

// Tokens exposes the JWT service.
func (m *Manager) Tokens() *jwt.Service { return m.tokens }

// Config returns the active policy.
func (m *Manager) Config() Config { return m.cfg }

// RegisterInput is the registration form.
type RegisterInput struct {
	Username    string `json:"username" validate:"required,max=50"`
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"required"`
	FirstName   string `json:"first_name" validate:"omitempty,max=100"`
	LastName    string `json:"last_name" validate:"omitempty,max=100"`
	Phone       string `json:"phone" validate:"omitempty,max=20"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender      string `json:"gender" validate:"omitempty,oneof=male female other"`
	Country     string `json:"country" validate:"omitempty,len=2"`
	Language    string `json:"language" validate:"omitempty,max=5"`
	IP          string `json:"-"`
	UserAgent   string `json:"-"`
}

// Register creates an active account with the "user" role.
func (m *Manager) Register(ctx context.Context, in RegisterInput) (*User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	verrs, err := validate(in)
	if err != nil {
		return nil, err
	}
	m.checkPassword(&verrs, "password", in.Password)

	if in.Username != "" && !verrs.Has("username") {
		taken, err := m.conn.Table("users").WhereEq("username", in.Username).Exists(ctx)
		if err != nil {
			return nil, err
		}
		if taken {
			verrs.Add("username", "The username has already been taken.")
		}
	}
	if in.Email != "" && !verrs.Has("email") {
		taken, err := m.conn.Table("users").WhereEq("email", in.Email).Exists(ctx)
		if err != nil {
			return nil, err
		}
		if taken {
			verrs.Add("email", "The email has already been taken.")
		}
	}
	if err := verrs.Err(); err != nil {
		return nil, err
	}

	hash, err := m.hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	id, err := m.conn.Insert(ctx, "users", map[string]any{
		"uuid":           uuid.NewString(),
		"username":       in.Username,
		"email":          in.Email,
		"password":       hash,
		"first_name":     strings.TrimSpace(in.FirstName),
		"last_name":      strings.TrimSpace(in.LastName),
		"phone":          nullable(in.Phone),
		"date_of_birth":  nullable(in.DateOfBirth),
		"gender":         nullable(in.Gender),
		"country":        strings.ToUpper(orDefault(in.Country, "RW")),
		"language":       orDefault(in.Language, "en"),
		"role":           RoleUser,
		"status":         StatusActive,
		"login_attempts": 0,
		"created_at":     now,
		"updated_at":     now,
	})
	if db.IsUniqueViolation(err) {
		// A concurrent registration won the race between the check and the insert.
		var taken validator.ValidationErrors
		taken.Add("username", "The username or email has already been taken.")
		return nil, taken
	}
	if err != nil {
		return nil, err
	}

	m.record(ctx, Activity{
		UserID:      id,
		Type:        ActivityRegistration,
		Description: "User registered",
		IP:          in.IP,
		UserAgent:   in.UserAgent,
	})

	return m.FindUser(ctx, id)
}

// LoginInput carries credentials. Identifier is a username or an email;
// Login is accepted as an alias of it.
type LoginInput struct {
	Identifier string `json:"identifier" validate:"required"`
	Login      string `json:"login" validate:"-"`
	Password   string `json:"password" validate:"required"`
	IP         string `json:"-"`
	UserAgent  string `json:"-"`
	Remember   bool   `json:"remember"`
}

// LoginResult is a successful login. RememberToken is set only when
// LoginInput.Remember was true; it is the plain value for the cookie.
type LoginResult struct {
	User          *User       `json:"user"`
	Claims        *jwt.Claims `json:"-"`
	Token         string      `json:"token"`
	RememberToken string      `json:"-"`
}

// Login verifies credentials and issues an access token.
func (m *Manager) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if strings.TrimSpace(in.Identifier) == "" {
		in.Identifier = in.Login
	}
	in.Identifier = strings.TrimSpace(in.Identifier)
	verrs, err := validate(in)
	if err != nil {
		return nil, err
	}
	if err := verrs.Err(); err != nil {
		return nil, err
	}

	user, err := m.FindUserByIdentifier(ctx, in.Identifier)
	if errors.Is(err, ErrUserNotFound) {
		// Unknown identifiers pay for one comparison too.
		_ = bcrypt.CompareHashAndPassword(m.dummy(), []byte(in.Password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	if user.IsLocked(now) {
		return nil, ErrAccountLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		if err := m.recordFailure(ctx, user, now, in); err != nil {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive() {
		return nil, ErrAccountInactive
	}

	res := &LoginResult{User: user}
	values := map[string]any{
		"login_attempts": 0,
		"locked_until":   nil,
		"last_login_at":  now,
		"last_login_ip":  nullable(in.IP),
		"updated_at":     now,
	}
	if in.Remember {
		plain, digest, err := newToken()
		if err != nil {
			return nil, err
		}
		values["remember_token"] = digest
		res.RememberToken = plain
		user.RememberToken = digest
	}
	if _, err := m.conn.Update(ctx, "users", values, "id = :id", map[string]any{"id": user.ID}); err != nil {
		return nil, err
	}

	user.LoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	user.LastLoginIP = nullableString(in.IP)

	res.Token, res.Claims, err = m.tokens.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}

	m.record(ctx, Activity{
		UserID:      user.ID,
		Type:        ActivityLogin,
		Description: "User logged in",
		IP:          in.IP,
		UserAgent:   in.UserAgent,
	})
	return res, nil
}

// recordFailure counts a wrong password. A lock that has already expired
// starts a fresh window.
func (m *Manager) recordFailure(ctx context.Context, user *User, now time.Time, in LoginInput) error {
	attempts := user.LoginAttempts
	if user.LockedUntil != nil {
		attempts = 0
	}
	attempts++

	values := map[string]any{
		"login_attempts": attempts,
		"locked_until":   nil,
		"updated_at":     now,
	}
	if attempts >= m.cfg.MaxAttempts {
		values["locked_until"] = now.Add(m.cfg.LockDuration)
	}
	if _, err := m.conn.Update(ctx, "users", values, "id = :id", map[string]any{"id": user.ID}); err != nil {
		return err
	}

	m.record(ctx, Activity{
		UserID:      user.ID,
		Type:        ActivityFailedLogin,
		Description: fmt.Sprintf("Failed login attempt #%d", attempts),
		IP:          in.IP,
		UserAgent:   in.UserAgent,
	})
	if attempts >= m.cfg.MaxAttempts {
		m.log.WarnContext(ctx, "account locked",
			slog.Int64("user_id", user.ID),
			slog.Int("attempts", attempts),
			slog.Duration("duration", m.cfg.LockDuration),
		)
	}
	return nil
}

// Attach binds user to sess and rotates the CSRF token.
func (m *Manager) Attach(sess *session.Session, user *User) {
	sess.SetUser(strconv.FormatInt(user.ID, 10))
	sess.SetValue(SessionUserID, user.ID)
	sess.SetValue(SessionUsername, user.Username)
	sess.SetValue(SessionRole, user.Role)
	sess.RegenerateCSRF()
}

// LogoutInput identifies what to end. Either Session or Claims may be nil.
type LogoutInput struct {
	Session   *session.Session
	Claims    *jwt.Claims
	IP        string
	UserAgent string
}

// Logout clears the session identity, revokes the presented token and
// forgets the remember token.
func (m *Manager) Logout(ctx context.Context, in LogoutInput) error {
	var userID int64
	if in.Claims != nil {
		userID = in.Claims.UserID
		if err := m.Revoke(ctx, in.Claims); err != nil {
			return err
		}
	}
	if in.Session != nil {
		if userID == 0 && in.Session.UserID != nil {
			userID, _ = strconv.ParseInt(*in.Session.UserID, 10, 64)
		}
		in.Session.Clear()
	}
	if userID == 0 {
		return nil
	}

	if _, err := m.conn.Update(ctx, "users",
		map[string]any{"remember_token": nil},
		"id = :id", map[string]any{"id": userID},
	); err != nil {
		return err
	}
	m.record(ctx, Activity{
		UserID:      userID,
		Type:        ActivityLogout,
		Description: "User logged out",
		IP:          in.IP,
		UserAgent:   in.UserAgent,
	})
	return nil
}

// Authenticate verifies an access token and rejects revoked ones.
func (m *Manager) Authenticate(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := m.tokens.Parse(token)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	revoked, err := m.revoked.Has(ctx, revokedKey(claims.ID))
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, errors.Join(ErrInvalidToken, ErrTokenRevoked)
	}
	return claims, nil
}

// Revoke denylists the token's jti until the token expires.
func (m *Manager) Revoke(ctx context.Context, claims *jwt.Claims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	ttl := claims.TTL(m.now())
	if ttl <= 0 {
		return nil
	}
	return m.revoked.Set(ctx, revokedKey(claims.ID), claims.Subject, ttl)
}

// Refresh exchanges a valid token for a new one and revokes the old jti.
// The role is re-read so demotions take effect.
func (m *Manager) Refresh(ctx context.Context, claims *jwt.Claims) (string, *jwt.Claims, error) {
	user, err := m.FindUser(ctx, claims.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return "", nil, ErrInvalidToken
	}
	if err != nil {
		return "", nil, err
	}
	if !user.IsActive() {
		return "", nil, ErrAccountInactive
	}
	if err := m.Revoke(ctx, claims); err != nil {
		return "", nil, err
	}
	return m.tokens.Issue(user.ID, user.Username, user.Role)
}

// LoginWithRememberToken resolves the plain remember-me cookie value.
func (m *Manager) LoginWithRememberToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	user, err := m.findUser(ctx, m.conn.Table("users").WhereEq("remember_token", digest(token)))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, ErrAccountInactive
	}
	return user, nil
}

func (m *Manager) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), m.cfg.BcryptCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (m *Manager) dummy() []byte {
	m.dummyOnce.Do(func() {
		m.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("cineverse-dummy-password"), m.cfg.BcryptCost)
	})
	return m.dummyHash
}

func (m *Manager) checkPassword(verrs *validator.ValidationErrors, field, password string) {
	if password == "" || verrs.Has(field) {
		return
	}
	if utf8.RuneCountInString(password) < m.cfg.PasswordMinLength {
		verrs.Add(field, fmt.Sprintf("The %s must be at least %d characters long.", field, m.cfg.PasswordMinLength))
	}
}

// validate runs struct tags and returns the failures for further checks.
func validate(v any) (validator.ValidationErrors, error) {
	err := validator.Struct(v)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, nil
	}
	return nil, err
}

func revokedKey(jti string) string { return "jti:" + jti }

func nullable(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
