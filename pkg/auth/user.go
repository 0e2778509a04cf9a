package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrymomot/cineverse/pkg/query"
)

// Roles.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Account statuses.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
	StatusBanned    = "banned"
)

// User is an account row. Password and RememberToken never leave the
// process in JSON.
type User struct {
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	LastLoginAt     *time.Time `json:"last_login_at"`
	LockedUntil     *time.Time `json:"-"`
	Phone           *string    `json:"phone"`
	Avatar          *string    `json:"avatar"`
	Bio             *string    `json:"bio"`
	DateOfBirth     *string    `json:"date_of_birth"`
	Gender          *string    `json:"gender"`
	LastLoginIP     *string    `json:"last_login_ip"`
	UUID            string     `json:"uuid"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Country         string     `json:"country"`
	Language        string     `json:"language"`
	Role            string     `json:"role"`
	Status          string     `json:"status"`
	Password        string     `json:"-"`
	RememberToken   string     `json:"-"`
	ID              int64      `json:"id"`
	LoginAttempts   int        `json:"-"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// IsModerator reports moderator privileges, which admins also hold.
func (u *User) IsModerator() bool { return u.Role == RoleAdmin || u.Role == RoleModerator }

func (u *User) IsActive() bool { return u.Status == StatusActive }

func (u *User) IsEmailVerified() bool { return u.EmailVerifiedAt != nil }

// IsLocked reports whether a lockout is in force at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

func userFromRow(r query.Row) *User {
	return &User{
		ID:              r.Int64("id"),
		UUID:            r.String("uuid"),
		Username:        r.String("username"),
		Email:           r.String("email"),
		Password:        r.String("password"),
		FirstName:       r.String("first_name"),
		LastName:        r.String("last_name"),
		Phone:           r.NullString("phone"),
		Avatar:          r.NullString("avatar"),
		Bio:             r.NullString("bio"),
		DateOfBirth:     r.NullString("date_of_birth"),
		Gender:          r.NullString("gender"),
		Country:         r.String("country"),
		Language:        r.String("language"),
		Role:            r.String("role"),
		Status:          r.String("status"),
		EmailVerifiedAt: r.NullTime("email_verified_at"),
		RememberToken:   r.String("remember_token"),
		LoginAttempts:   r.Int("login_attempts"),
		LockedUntil:     r.NullTime("locked_until"),
		LastLoginAt:     r.NullTime("last_login_at"),
		LastLoginIP:     r.NullString("last_login_ip"),
		CreatedAt:       r.Time("created_at"),
		UpdatedAt:       r.Time("updated_at"),
	}
}

// FindUser loads a user by primary key.
func (m *Manager) FindUser(ctx context.Context, id int64) (*User, error) {
	return m.findUser(ctx, m.conn.Table("users").WhereEq("id", id))
}

// FindUserByEmail loads a user by exact email.
func (m *Manager) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	return m.findUser(ctx, m.conn.Table("users").WhereEq("email", email))
}

// FindUserByIdentifier matches username or email.
func (m *Manager) FindUserByIdentifier(ctx context.Context, identifier string) (*User, error) {
	return m.findUser(ctx, m.conn.Table("users").
		WhereEq("username", identifier).
		OrWhere("email", "=", identifier))
}

func (m *Manager) findUser(ctx context.Context, q *query.Builder) (*User, error) {
	row, err := q.First(ctx)
	if errors.Is(err, query.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return userFromRow(row), nil
}
