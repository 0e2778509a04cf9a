package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cineverse/pkg/session"
)

func newSession() *session.Session {
	s := session.New("id-1", "token-1", time.Now().Add(time.Hour))
	s.ClearDirty()
	return s
}

func TestSession(t *testing.T) {
	t.Parallel()

	t.Run("starts new, dirty and anonymous", func(t *testing.T) {
		t.Parallel()

		s := session.New("id", "tok", time.Now().Add(time.Hour))
		require.True(t, s.IsNew())
		require.True(t, s.IsDirty())
		require.False(t, s.IsAuthenticated())
		require.False(t, s.IsExpired())
	})

	t.Run("binds and clears the user", func(t *testing.T) {
		t.Parallel()

		s := newSession()
		s.SetUser("42")
		require.True(t, s.IsAuthenticated())
		require.True(t, s.IsDirty())

		s.SetValue("username", "ana")
		s.Clear()
		require.False(t, s.IsAuthenticated())
		_, ok := s.GetValue("username")
		require.False(t, ok)
	})

	t.Run("deleting a missing key keeps the session clean", func(t *testing.T) {
		t.Parallel()

		s := newSession()
		s.DeleteValue("missing")
		require.False(t, s.IsDirty())
	})

	t.Run("converts stored numbers through Value", func(t *testing.T) {
		t.Parallel()

		s := newSession()
		s.SetValue("count", float64(3))
		s.SetValue("name", "ana")

		n, err := session.Value[int](s, "count")
		require.NoError(t, err)
		require.Equal(t, 3, n)

		_, err = session.Value[int](s, "name")
		require.ErrorIs(t, err, session.ErrTypeMismatch)

		_, err = session.Value[string](s, "missing")
		require.ErrorIs(t, err, session.ErrNotFound)

		require.Equal(t, "fallback", session.ValueOr(s, "missing", "fallback"))
	})
}

func TestFlash(t *testing.T) {
	t.Parallel()

	t.Run("is read exactly once", func(t *testing.T) {
		t.Parallel()

		s := newSession()
		s.SetFlash("status", "saved")
		require.True(t, s.HasFlash("status"))
		require.Equal(t, []string{"status"}, s.Flashes())

		require.Equal(t, "saved", s.FlashString("status"))
		require.Equal(t, "gone", s.Flash("status", "gone"))
		require.False(t, s.HasFlash("status"))
	})

	t.Run("is stored under the flash prefix", func(t *testing.T) {
		t.Parallel()

		s := newSession()
		s.SetFlash("error", "bad")
		v, ok := s.GetValue("_flash_error")
		require.True(t, ok)
		require.Equal(t, "bad", v)
	})

	t.Run("KeepFlash restores consumed values", func(t *testing.T) {
		t.Parallel()

		s := newSession()
		s.SetFlash("a", 1)
		s.SetFlash("b", 2)
		require.Equal(t, 1, s.Flash("a", nil))
		require.Equal(t, 2, s.Flash("b", nil))

		s.KeepFlash("a")
		require.True(t, s.HasFlash("a"))
		require.False(t, s.HasFlash("b"))

		s.KeepFlash()
		require.True(t, s.HasFlash("b"))
	})
}

func TestCSRF(t *testing.T) {
	t.Parallel()

	t.Run("generates a stable 64 char token", func(t *testing.T) {
		t.Parallel()

		s := newSession()
		tok := s.CSRFToken()
		require.Len(t, tok, 64)
		require.Equal(t, tok, s.CSRFToken())

		v, ok := s.GetValue(session.CSRFKey)
		require.True(t, ok)
		require.Equal(t, tok, v)
	})

	t.Run("verifies only the stored token", func(t *testing.T) {
		t.Parallel()

		s := newSession()
		require.False(t, s.VerifyCSRF("anything"))

		tok := s.CSRFToken()
		require.True(t, s.VerifyCSRF(tok))
		require.False(t, s.VerifyCSRF(tok[:63]+"x"))
		require.False(t, s.VerifyCSRF(""))
	})

	t.Run("regenerates on demand", func(t *testing.T) {
		t.Parallel()

		s := newSession()
		old := s.CSRFToken()
		require.NotEqual(t, old, s.RegenerateCSRF())
		require.False(t, s.VerifyCSRF(old))
	})
}
