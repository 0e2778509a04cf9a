package session

import (
	"encoding/json"
	"errors"
	"time"
)

// Session is the per-visitor value bag. Values must be JSON-compatible:
// stores persist them as JSON, so numbers read back from a store are
// float64 until converted by [Value].
type Session struct {
	CreatedAt    time.Time
	LastActiveAt time.Time
	ExpiresAt    time.Time

	UserID    *string        // nil = anonymous session
	Values    map[string]any // Arbitrary session data
	ID        string         // Unique identifier (ULID)
	Token     string         // Cookie token (different from ID)
	IP        string
	UserAgent string

	// flash values read during this request, restored by KeepFlash
	consumed map[string]any

	dirty bool
	isNew bool
}

// New creates a new session with the given ID and token.
func New(id, token string, expiresAt time.Time) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Token:        token,
		Values:       make(map[string]any),
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    expiresAt,
		isNew:        true,
		dirty:        true,
	}
}

// IsAuthenticated returns true if the session has an associated user.
func (s *Session) IsAuthenticated() bool {
	return s.UserID != nil && *s.UserID != ""
}

// SetUser binds the session to a user. An empty id makes it anonymous.
func (s *Session) SetUser(userID string) {
	if userID == "" {
		s.UserID = nil
	} else {
		s.UserID = &userID
	}
	s.dirty = true
}

// SetValue stores a value in the session and marks it dirty.
func (s *Session) SetValue(key string, val any) {
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	s.Values[key] = val
	s.dirty = true
}

// GetValue retrieves a value from the session.
func (s *Session) GetValue(key string) (any, bool) {
	if s.Values == nil {
		return nil, false
	}
	val, ok := s.Values[key]
	return val, ok
}

// DeleteValue removes a value. The session becomes dirty only if the key
// existed.
func (s *Session) DeleteValue(key string) {
	if s.Values == nil {
		return
	}
	if _, exists := s.Values[key]; exists {
		delete(s.Values, key)
		s.dirty = true
	}
}

// Clear drops every value and the user binding.
func (s *Session) Clear() {
	s.Values = make(map[string]any)
	s.consumed = nil
	s.UserID = nil
	s.dirty = true
}

// IsDirty returns true if the session has unsaved changes.
func (s *Session) IsDirty() bool {
	return s.dirty
}

// ClearDirty marks the session as saved.
func (s *Session) ClearDirty() {
	s.dirty = false
}

// MarkDirty marks the session as needing to be saved.
func (s *Session) MarkDirty() {
	s.dirty = true
}

// IsNew returns true if the session was just created.
func (s *Session) IsNew() bool {
	return s.isNew
}

// ClearNew marks the session as persisted.
func (s *Session) ClearNew() {
	s.isNew = false
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Value returns the value under key converted to T. Values that went
// through a store (float64 numbers, map objects) are converted by a JSON
// round trip.
func Value[T any](s *Session, key string) (T, error) {
	var zero T
	if s == nil {
		return zero, ErrNotFound
	}

	val, ok := s.GetValue(key)
	if !ok {
		return zero, ErrNotFound
	}
	if typed, ok := val.(T); ok {
		return typed, nil
	}

	raw, err := json.Marshal(val)
	if err != nil {
		return zero, errors.Join(ErrTypeMismatch, err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, errors.Join(ErrTypeMismatch, err)
	}
	return out, nil
}

// ValueOr is like Value but returns def when the key is missing or cannot
// be converted.
func ValueOr[T any](s *Session, key string, def T) T {
	val, err := Value[T](s, key)
	if err != nil {
		return def
	}
	return val
}
