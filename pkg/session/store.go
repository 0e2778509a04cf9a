package session

import (
	"context"
	"maps"
	"time"
)

// Store defines the interface for session persistence.
type Store interface {
	// Create persists a new session.
	Create(ctx context.Context, s *Session) error

	// Get retrieves a session by its token.
	// Returns ErrNotFound if the session doesn't exist.
	// Returns ErrExpired if the session has expired.
	Get(ctx context.Context, token string) (*Session, error)

	// Update saves changes to an existing session, including a rotated token.
	Update(ctx context.Context, s *Session) error

	// Delete removes a session by its ID.
	Delete(ctx context.Context, id string) error

	// DeleteByUserID removes all sessions for a user.
	DeleteByUserID(ctx context.Context, userID string) error

	// Touch updates the LastActiveAt timestamp.
	Touch(ctx context.Context, id string, lastActiveAt time.Time) error
}

// Collector is implemented by stores that need expired sessions removed
// periodically. It returns the number of sessions removed.
type Collector interface {
	GC(ctx context.Context) (int, error)
}

// Record is the serialized form of a Session used by cache-backed stores.
type Record struct {
	CreatedAt    time.Time      `json:"created_at"`
	LastActiveAt time.Time      `json:"last_active_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
	Values       map[string]any `json:"values"`
	ID           string         `json:"id"`
	Token        string         `json:"token"`
	UserID       string         `json:"user_id,omitempty"`
	IP           string         `json:"ip,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
}

// Record returns the persisted form of s.
func (s *Session) Record() Record {
	r := Record{
		CreatedAt:    s.CreatedAt,
		LastActiveAt: s.LastActiveAt,
		ExpiresAt:    s.ExpiresAt,
		Values:       maps.Clone(s.Values),
		ID:           s.ID,
		Token:        s.Token,
		IP:           s.IP,
		UserAgent:    s.UserAgent,
	}
	if s.UserID != nil {
		r.UserID = *s.UserID
	}
	return r
}

// Session rebuilds a clean, already persisted Session from the record.
func (r Record) Session() *Session {
	s := &Session{
		CreatedAt:    r.CreatedAt,
		LastActiveAt: r.LastActiveAt,
		ExpiresAt:    r.ExpiresAt,
		Values:       maps.Clone(r.Values),
		ID:           r.ID,
		Token:        r.Token,
		IP:           r.IP,
		UserAgent:    r.UserAgent,
	}
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	if r.UserID != "" {
		uid := r.UserID
		s.UserID = &uid
	}
	return s
}
