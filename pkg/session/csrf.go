package session

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
)

// CSRFKey is the session value holding the CSRF token.
const CSRFKey = "_csrf_token"

// CSRFToken returns the session's CSRF token, generating 32 random bytes
// (hex encoded) on first use.
func (s *Session) CSRFToken() string {
	if tok, ok := s.GetValue(CSRFKey); ok {
		if str, ok := tok.(string); ok && str != "" {
			return str
		}
	}
	return s.RegenerateCSRF()
}

// RegenerateCSRF replaces the CSRF token, typically after login.
func (s *Session) RegenerateCSRF() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	tok := hex.EncodeToString(b)
	s.SetValue(CSRFKey, tok)
	return tok
}

// VerifyCSRF compares token with the stored one in constant time.
// A session without a token never verifies.
func (s *Session) VerifyCSRF(token string) bool {
	stored, ok := s.GetValue(CSRFKey)
	if !ok {
		return false
	}
	str, ok := stored.(string)
	if !ok || str == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(str), []byte(token)) == 1
}
