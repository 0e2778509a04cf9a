package payment

import (
	"context"
	"time"

	"github.com/dmitrymomot/cineverse/pkg/db"
)

// Subscription statuses.
const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
)

// Subscription is a row of subscriptions.
type Subscription struct {
	StartsAt      time.Time  `json:"starts_at"`
	EndsAt        time.Time  `json:"ends_at"`
	CancelledAt   *time.Time `json:"cancelled_at"`
	CreatedAt     time.Time  `json:"created_at"`
	Plan          string     `json:"plan"`
	Status        string     `json:"status"`
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	TransactionID int64      `json:"transaction_id"`
}

// IsActive reports whether the subscription grants access at now.
func (s *Subscription) IsActive(now time.Time) bool {
	return s.Status == SubscriptionActive && s.EndsAt.After(now)
}

type subscriptions struct {
	conn *db.Conn
}

// active returns the user's running subscription with the latest end.
func (s subscriptions) active(ctx context.Context, userID int64, now time.Time) (*Subscription, error) {
	rows, err := s.conn.Table("subscriptions").
		WhereEq("user_id", userID).
		WhereEq("status", SubscriptionActive).
		OrderBy("ends_at", "desc").
		Get(ctx)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		sub := &Subscription{
			ID:            row.Int64("id"),
			UserID:        row.Int64("user_id"),
			TransactionID: row.Int64("transaction_id"),
			Plan:          row.String("plan"),
			Status:        row.String("status"),
			StartsAt:      row.Time("starts_at"),
			EndsAt:        row.Time("ends_at"),
			CancelledAt:   row.NullTime("cancelled_at"),
			CreatedAt:     row.Time("created_at"),
		}
		if sub.IsActive(now) {
			return sub, nil
		}
	}
	return nil, ErrNoSubscription
}

// activate starts a subscription for the paid plan. A running subscription
// is extended: the new period starts when the current one ends.
func (s subscriptions) activate(ctx context.Context, t *Transaction, plan Plan, now time.Time) (*Subscription, error) {
	start := now
	if cur, err := s.active(ctx, t.UserID, now); err == nil {
		start = cur.EndsAt
	}
	sub := &Subscription{
		UserID:        t.UserID,
		TransactionID: t.ID,
		Plan:          plan.ID,
		Status:        SubscriptionActive,
		StartsAt:      start,
		EndsAt:        start.Add(plan.Duration),
		CreatedAt:     now,
	}
	id, err := s.conn.Insert(ctx, "subscriptions", map[string]any{
		"user_id":        sub.UserID,
		"transaction_id": sub.TransactionID,
		"plan":           sub.Plan,
		"status":         sub.Status,
		"starts_at":      sub.StartsAt,
		"ends_at":        sub.EndsAt,
		"created_at":     now,
		"updated_at":     now,
	})
	if err != nil {
		return nil, err
	}
	sub.ID = id
	return sub, nil
}

func (s subscriptions) cancel(ctx context.Context, userID int64, now time.Time) error {
	n, err := s.conn.Update(ctx, "subscriptions",
		map[string]any{"status": SubscriptionCancelled, "cancelled_at": now, "updated_at": now},
		"user_id = :user_id AND status = :status",
		map[string]any{"user_id": userID, "status": SubscriptionActive},
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoSubscription
	}
	return nil
}
