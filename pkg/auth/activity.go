package auth

import (
	"context"
	"log/slog"
	"time"
)

// Activity types written to user_activities.
const (
	ActivityRegistration           = "registration"
	ActivityLogin                  = "login"
	ActivityFailedLogin            = "failed_login"
	ActivityLogout                 = "logout"
	ActivityPasswordResetRequested = "password_reset_requested"
	ActivityPasswordReset          = "password_reset"
	ActivityPasswordChanged        = "password_changed"
	ActivityEmailVerified          = "email_verified"
	ActivityProfileUpdated         = "profile_updated"
	ActivityStatusChanged          = "status_changed"
)

// Activity is one audit log entry.
type Activity struct {
	CreatedAt   time.Time `json:"created_at"`
	Type        string    `json:"activity_type"`
	Description string    `json:"description"`
	IP          string    `json:"ip_address"`
	UserAgent   string    `json:"user_agent"`
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
}

// RecordActivity appends an entry. A zero CreatedAt is set to now.
func (m *Manager) RecordActivity(ctx context.Context, a Activity) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = m.now().UTC()
	}
	_, err := m.conn.Insert(ctx, "user_activities", map[string]any{
		"user_id":       a.UserID,
		"activity_type": a.Type,
		"description":   nullable(a.Description),
		"ip_address":    nullable(a.IP),
		"user_agent":    nullable(a.UserAgent),
		"created_at":    a.CreatedAt,
	})
	return err
}

// record is RecordActivity for side paths where the audit row must not
// fail the operation.
func (m *Manager) record(ctx context.Context, a Activity) {
	if err := m.RecordActivity(ctx, a); err != nil {
		m.log.ErrorContext(ctx, "failed to record activity",
			slog.Int64("user_id", a.UserID),
			slog.String("type", a.Type),
			slog.Any("error", err),
		)
	}
}

// Activities returns the newest entries for a user. limit <= 0 means 20.
func (m *Manager) Activities(ctx context.Context, userID int64, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := m.conn.Table("user_activities").
		WhereEq("user_id", userID).
		OrderBy("created_at", "desc").
		OrderBy("id", "desc").
		Limit(limit).
		Get(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Activity, 0, len(rows))
	for _, r := range rows {
		out = append(out, Activity{
			ID:          r.Int64("id"),
			UserID:      r.Int64("user_id"),
			Type:        r.String("activity_type"),
			Description: r.String("description"),
			IP:          r.String("ip_address"),
			UserAgent:   r.String("user_agent"),
			CreatedAt:   r.Time("created_at"),
		})
	}
	return out, nil
}
