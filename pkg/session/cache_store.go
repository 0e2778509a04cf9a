package session

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/cineverse/pkg/cache"
)

// CacheStore keeps sessions in any cache backend. Records are keyed by
// session ID; refs holds the token -> ID lookup and the per-user index.
// The user index is maintained with read-modify-write and is only
// consistent within one process.
type CacheStore struct {
	records cache.Cache[Record]
	refs    cache.Cache[string]
	mu      sync.Mutex
}

// NewCacheStore creates a store over two caches that may share a backend
// but must not share a key namespace.
//
//	records, _ := cache.Open[session.Record](cfg.Cache, "redis", "sessions", clients)
//	refs, _ := cache.Open[string](cfg.Cache, "redis", "session_refs", clients)
//	store := session.NewCacheStore(records, refs)
func NewCacheStore(records cache.Cache[Record], refs cache.Cache[string]) *CacheStore {
	return &CacheStore{records: records, refs: refs}
}

// Create persists a new session.
func (st *CacheStore) Create(ctx context.Context, s *Session) error {
	return st.save(ctx, s)
}

// Get resolves token to its session.
func (st *CacheStore) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	id, err := st.refs.Get(ctx, tokenKey(token))
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rec, err := st.records.Get(ctx, id)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	// The token was rotated; the old reference is stale.
	if rec.Token != token {
		return nil, ErrNotFound
	}
	if time.Now().After(rec.ExpiresAt) {
		_ = st.Delete(ctx, rec.ID)
		return nil, ErrExpired
	}
	return rec.Session(), nil
}

// Update overwrites the stored record.
func (st *CacheStore) Update(ctx context.Context, s *Session) error {
	prev, err := st.records.Get(ctx, s.ID)
	if err == nil && prev.Token != s.Token {
		_ = st.refs.Delete(ctx, tokenKey(prev.Token))
	}
	return st.save(ctx, s)
}

// Delete removes the session and its references.
func (st *CacheStore) Delete(ctx context.Context, id string) error {
	rec, err := st.records.Get(ctx, id)
	if errors.Is(err, cache.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := st.refs.Delete(ctx, tokenKey(rec.Token)); err != nil {
		return err
	}
	if rec.UserID != "" {
		if err := st.unindex(ctx, rec.UserID, id); err != nil {
			return err
		}
	}
	return st.records.Delete(ctx, id)
}

// DeleteByUserID removes every indexed session of the user.
func (st *CacheStore) DeleteByUserID(ctx context.Context, userID string) error {
	for _, id := range st.userSessions(ctx, userID) {
		if err := st.Delete(ctx, id); err != nil {
			return err
		}
	}
	return st.refs.Delete(ctx, userKey(userID))
}

// Touch refreshes LastActiveAt.
func (st *CacheStore) Touch(ctx context.Context, id string, lastActiveAt time.Time) error {
	rec, err := st.records.Get(ctx, id)
	if errors.Is(err, cache.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	rec.LastActiveAt = lastActiveAt
	return st.records.Set(ctx, id, rec, ttlUntil(rec.ExpiresAt))
}

// GC collects expired entries when the backend needs it (memory, file).
// Remote backends expire records on their own and report zero.
func (st *CacheStore) GC(ctx context.Context) (int, error) {
	total := 0
	for _, c := range []any{st.records, st.refs} {
		if col, ok := c.(cache.Collector); ok {
			n, err := col.GC(ctx)
			if err != nil {
				return total, err
			}
			total += n
		}
	}
	return total, nil
}

func (st *CacheStore) save(ctx context.Context, s *Session) error {
	rec := s.Record()
	ttl := ttlUntil(rec.ExpiresAt)

	if err := st.records.Set(ctx, rec.ID, rec, ttl); err != nil {
		return err
	}
	if err := st.refs.Set(ctx, tokenKey(rec.Token), rec.ID, ttl); err != nil {
		return err
	}
	if rec.UserID != "" {
		return st.index(ctx, rec.UserID, rec.ID)
	}
	return nil
}

func (st *CacheStore) index(ctx context.Context, userID, id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	ids := st.userSessions(ctx, userID)
	if slices.Contains(ids, id) {
		return nil
	}
	ids = append(ids, id)
	return st.refs.Set(ctx, userKey(userID), strings.Join(ids, " "), -1)
}

func (st *CacheStore) unindex(ctx context.Context, userID, id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	ids := slices.DeleteFunc(st.userSessions(ctx, userID), func(v string) bool { return v == id })
	if len(ids) == 0 {
		return st.refs.Delete(ctx, userKey(userID))
	}
	return st.refs.Set(ctx, userKey(userID), strings.Join(ids, " "), -1)
}

func (st *CacheStore) userSessions(ctx context.Context, userID string) []string {
	raw, err := st.refs.Get(ctx, userKey(userID))
	if err != nil {
		return nil
	}
	return strings.Fields(raw)
}

func tokenKey(token string) string { return "t:" + token }
func userKey(userID string) string { return "u:" + userID }

// ttlUntil keeps already expired records for one second so Get can report
// ErrExpired instead of ErrNotFound.
func ttlUntil(expiresAt time.Time) time.Duration {
	return max(time.Until(expiresAt), time.Second)
}

var (
	_ Store     = (*CacheStore)(nil)
	_ Collector = (*CacheStore)(nil)
)
