package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dmitrymomot/cineverse/pkg/db"
	"github.com/dmitrymomot/cineverse/pkg/query"
)

const sessionColumns = "id, token, user_id, payload, ip_address, user_agent, last_activity, expires_at, created_at"

// DBStore keeps sessions in the sessions table. Timestamps are stored as
// unix seconds and the values map as a JSON payload.
type DBStore struct {
	conn *db.Conn
}

// NewDBStore creates a store on conn.
func NewDBStore(conn *db.Conn) *DBStore {
	return &DBStore{conn: conn}
}

// Create inserts a new session row.
func (st *DBStore) Create(ctx context.Context, s *Session) error {
	params, err := rowParams(s)
	if err != nil {
		return err
	}
	_, err = st.conn.Exec(ctx,
		"INSERT INTO sessions ("+sessionColumns+") VALUES "+
			"(:id, :token, :user_id, :payload, :ip_address, :user_agent, :last_activity, :expires_at, :created_at)",
		params,
	)
	return err
}

// Get loads the session by token. Expired rows are deleted.
func (st *DBStore) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	row, err := st.conn.QueryRow(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE token = :token",
		map[string]any{"token": token},
	)
	if errors.Is(err, query.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	s, err := sessionFromRow(row)
	if err != nil {
		return nil, err
	}
	if s.IsExpired() {
		_ = st.Delete(ctx, s.ID)
		return nil, ErrExpired
	}
	return s, nil
}

// Update writes every mutable column, including a rotated token.
func (st *DBStore) Update(ctx context.Context, s *Session) error {
	params, err := rowParams(s)
	if err != nil {
		return err
	}
	delete(params, "created_at")
	n, err := st.conn.Exec(ctx,
		"UPDATE sessions SET token = :token, user_id = :user_id, payload = :payload, "+
			"ip_address = :ip_address, user_agent = :user_agent, "+
			"last_activity = :last_activity, expires_at = :expires_at WHERE id = :id",
		params,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the session row.
func (st *DBStore) Delete(ctx context.Context, id string) error {
	_, err := st.conn.Delete(ctx, "sessions", "id = :id", map[string]any{"id": id})
	return err
}

// DeleteByUserID removes all of a user's sessions.
func (st *DBStore) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := st.conn.Delete(ctx, "sessions", "user_id = :user_id", map[string]any{"user_id": userID})
	return err
}

// Touch updates last_activity.
func (st *DBStore) Touch(ctx context.Context, id string, lastActiveAt time.Time) error {
	_, err := st.conn.Exec(ctx,
		"UPDATE sessions SET last_activity = :at WHERE id = :id",
		map[string]any{"at": lastActiveAt.Unix(), "id": id},
	)
	return err
}

// GC deletes expired rows.
func (st *DBStore) GC(ctx context.Context) (int, error) {
	n, err := st.conn.Delete(ctx, "sessions", "expires_at < :now", map[string]any{"now": time.Now().Unix()})
	return int(n), err
}

func rowParams(s *Session) (map[string]any, error) {
	values := s.Values
	if values == nil {
		values = map[string]any{}
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}

	var userID any
	if s.IsAuthenticated() {
		userID = *s.UserID
	}
	return map[string]any{
		"id":            s.ID,
		"token":         s.Token,
		"user_id":       userID,
		"payload":       string(payload),
		"ip_address":    s.IP,
		"user_agent":    s.UserAgent,
		"last_activity": s.LastActiveAt.Unix(),
		"expires_at":    s.ExpiresAt.Unix(),
		"created_at":    s.CreatedAt.Unix(),
	}, nil
}

func sessionFromRow(row query.Row) (*Session, error) {
	values := map[string]any{}
	if payload := row.String("payload"); payload != "" {
		if err := json.Unmarshal([]byte(payload), &values); err != nil {
			return nil, errors.Join(ErrInvalidToken, err)
		}
	}
	rec := Record{
		ID:           row.String("id"),
		Token:        row.String("token"),
		UserID:       row.String("user_id"),
		Values:       values,
		IP:           row.String("ip_address"),
		UserAgent:    row.String("user_agent"),
		LastActiveAt: time.Unix(row.Int64("last_activity"), 0),
		ExpiresAt:    time.Unix(row.Int64("expires_at"), 0),
		CreatedAt:    time.Unix(row.Int64("created_at"), 0),
	}
	return rec.Session(), nil
}

var (
	_ Store     = (*DBStore)(nil)
	_ Collector = (*DBStore)(nil)
)
