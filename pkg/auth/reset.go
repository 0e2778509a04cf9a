package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/cineverse/pkg/db"
	"github.com/dmitrymomot/cineverse/pkg/query"
	"github.com/dmitrymomot/cineverse/pkg/validator"
)

// RequestPasswordReset issues a reset token when email belongs to an
// account. The returned message is ResetRequestedMessage either way.
func (m *Manager) RequestPasswordReset(ctx context.Context, email, ip, userAgent string) (string, error) {
	email = strings.TrimSpace(email)
	if err := validator.Var("email", email, "required,email"); err != nil {
		return "", err
	}

	user, err := m.FindUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return ResetRequestedMessage, nil
	}
	if err != nil {
		return "", err
	}

	plain, hashed, err := newToken()
	if err != nil {
		return "", err
	}
	now := m.now().UTC()
	err = m.conn.Transaction(ctx, func(tx *db.Conn) error {
		if _, err := tx.Delete(ctx, "password_reset_tokens", "email = :email", map[string]any{"email": user.Email}); err != nil {
			return err
		}
		_, err := tx.Insert(ctx, "password_reset_tokens", map[string]any{
			"email":      user.Email,
			"token":      hashed,
			"expires_at": now.Add(m.cfg.ResetTTL),
			"created_at": now,
		})
		return err
	})
	if err != nil {
		return "", err
	}

	if err := m.notifier.PasswordReset(ctx, user, plain); err != nil {
		m.log.ErrorContext(ctx, "failed to deliver password reset",
			slog.Int64("user_id", user.ID),
			slog.Any("error", err),
		)
	}
	m.record(ctx, Activity{
		UserID:      user.ID,
		Type:        ActivityPasswordResetRequested,
		Description: "Password reset requested",
		IP:          ip,
		UserAgent:   userAgent,
	})
	return ResetRequestedMessage, nil
}

// ResetPasswordInput is the reset form.
type ResetPasswordInput struct {
	Token     string `json:"token" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// ResetPassword consumes a reset token and sets a new password. It also
// lifts any lockout and forgets remember-me tokens.
func (m *Manager) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	verrs, err := validate(in)
	if err != nil {
		return err
	}
	m.checkPassword(&verrs, "password", in.Password)
	if err := verrs.Err(); err != nil {
		return err
	}

	row, err := m.conn.Table("password_reset_tokens").WhereEq("token", digest(in.Token)).First(ctx)
	if errors.Is(err, query.ErrNoRows) {
		return ErrInvalidToken
	}
	if err != nil {
		return err
	}

	now := m.now().UTC()
	email := row.String("email")
	if !row.Time("expires_at").After(now) {
		if _, err := m.conn.Delete(ctx, "password_reset_tokens", "id = :id", map[string]any{"id": row.Int64("id")}); err != nil {
			return err
		}
		return ErrInvalidToken
	}

	user, err := m.FindUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return err
	}

	hash, err := m.hash(in.Password)
	if err != nil {
		return err
	}

	err = m.conn.Transaction(ctx, func(tx *db.Conn) error {
		// Consuming the token row is the claim: of two concurrent resets
		// with the same token only one deletes it.
		n, err := tx.Delete(ctx, "password_reset_tokens", "id = :id", map[string]any{"id": row.Int64("id")})
		if err != nil {
			return err
		}
		if n != 1 {
			return ErrInvalidToken
		}
		if _, err := tx.Update(ctx, "users", map[string]any{
			"password":       hash,
			"remember_token": nil,
			"login_attempts": 0,
			"locked_until":   nil,
			"updated_at":     now,
		}, "id = :id", map[string]any{"id": user.ID}); err != nil {
			return err
		}
		_, err = tx.Delete(ctx, "password_reset_tokens", "email = :email", map[string]any{"email": email})
		return err
	})
	if err != nil {
		return err
	}

	m.record(ctx, Activity{
		UserID:      user.ID,
		Type:        ActivityPasswordReset,
		Description: "Password reset completed",
		IP:          in.IP,
		UserAgent:   in.UserAgent,
	})
	return nil
}

// IssueEmailVerification replaces any outstanding verification token for
// user and hands the new one to the notifier.
func (m *Manager) IssueEmailVerification(ctx context.Context, user *User) (string, error) {
	if user.IsEmailVerified() {
		return "", ErrEmailVerified
	}

	plain, hashed, err := newToken()
	if err != nil {
		return "", err
	}
	now := m.now().UTC()
	err = m.conn.Transaction(ctx, func(tx *db.Conn) error {
		if _, err := tx.Delete(ctx, "email_verification_tokens", "user_id = :user_id", map[string]any{"user_id": user.ID}); err != nil {
			return err
		}
		_, err := tx.Insert(ctx, "email_verification_tokens", map[string]any{
			"user_id":    user.ID,
			"token":      hashed,
			"expires_at": now.Add(m.cfg.VerifyTTL),
			"created_at": now,
		})
		return err
	})
	if err != nil {
		return "", err
	}

	if err := m.notifier.EmailVerification(ctx, user, plain); err != nil {
		return "", err
	}
	return plain, nil
}

// VerifyEmail consumes a verification token and marks the address verified.
func (m *Manager) VerifyEmail(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	row, err := m.conn.Table("email_verification_tokens").WhereEq("token", digest(token)).First(ctx)
	if errors.Is(err, query.ErrNoRows) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	userID := row.Int64("user_id")
	expired := !row.Time("expires_at").After(now)

	err = m.conn.Transaction(ctx, func(tx *db.Conn) error {
		if !expired {
			if _, err := tx.Update(ctx, "users",
				map[string]any{"email_verified_at": now, "updated_at": now},
				"id = :id", map[string]any{"id": userID},
			); err != nil {
				return err
			}
		}
		_, err := tx.Delete(ctx, "email_verification_tokens", "user_id = :user_id", map[string]any{"user_id": userID})
		return err
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, ErrInvalidToken
	}

	m.record(ctx, Activity{UserID: userID, Type: ActivityEmailVerified, Description: "Email verified"})
	return m.FindUser(ctx, userID)
}
