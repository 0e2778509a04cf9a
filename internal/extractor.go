package internal

import (
	"fmt"
	"strings"
)

// ExtractorSource extracts a value from the request.
// Returns the value and true if found, or ("", false) if not present.
type ExtractorSource = func(Context) (string, bool)

// Extractor tries multiple sources in order and returns the first match.
type Extractor struct {
	sources []ExtractorSource
}

// NewExtractor creates an Extractor that tries the given sources in order.
func NewExtractor(sources ...ExtractorSource) Extractor {
	return Extractor{sources: sources}
}

// Extract iterates sources in order and returns the first non-empty value.
// Returns ("", false) if all sources miss.
func (e Extractor) Extract(c Context) (string, bool) {
	for _, src := range e.sources {
		if v, ok := src(c); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// FromHeader returns a source that reads from a request header.
func FromHeader(name string) ExtractorSource {
	return func(c Context) (string, bool) {
		v := c.Header(name)
		if v == "" {
			return "", false
		}
		return v, true
	}
}

// FromQuery returns a source that reads from a query parameter.
func FromQuery(name string) ExtractorSource {
	return func(c Context) (string, bool) {
		v := c.Query(name)
		if v == "" {
			return "", false
		}
		return v, true
	}
}

// FromCookie returns a source that reads from a plain cookie.
func FromCookie(name string) ExtractorSource {
	return func(c Context) (string, bool) {
		v, err := c.Cookie(name)
		if err != nil || v == "" {
			return "", false
		}
		return v, true
	}
}

// FromCookieSigned returns a source that reads from a signed cookie.
func FromCookieSigned(name string) ExtractorSource {
	return func(c Context) (string, bool) {
		v, err := c.CookieSigned(name)
		if err != nil || v == "" {
			return "", false
		}
		return v, true
	}
}

// FromParam returns a source that reads from a URL parameter.
func FromParam(name string) ExtractorSource {
	return func(c Context) (string, bool) {
		v := c.Param(name)
		if v == "" {
			return "", false
		}
		return v, true
	}
}

// FromInput returns a source that reads a query or body parameter.
func FromInput(name string) ExtractorSource {
	return func(c Context) (string, bool) {
		v := c.Input(name)
		if v == "" {
			return "", false
		}
		return v, true
	}
}

// FromSession returns a source that reads a session value. Non-string
// values are formatted with fmt.Sprint.
func FromSession(key string) ExtractorSource {
	return func(c Context) (string, bool) {
		sess, err := c.Session()
		if err != nil || sess == nil {
			return "", false
		}
		val, ok := sess.GetValue(key)
		if !ok || val == nil {
			return "", false
		}
		s, ok := val.(string)
		if !ok {
			s = fmt.Sprint(val)
		}
		return s, s != ""
	}
}

// FromSessionUser returns a source that reads the user bound to the session.
func FromSessionUser() ExtractorSource {
	return func(c Context) (string, bool) {
		sess, err := c.Session()
		if err != nil || sess == nil || !sess.IsAuthenticated() {
			return "", false
		}
		return *sess.UserID, true
	}
}

// FromBearerToken returns a source that reads a Bearer token from the Authorization header.
// Uses case-insensitive comparison on the "Bearer " prefix.
func FromBearerToken() ExtractorSource {
	return func(c Context) (string, bool) {
		auth := c.Header("Authorization")
		if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
			return "", false
		}
		token := auth[7:]
		if token == "" {
			return "", false
		}
		return token, true
	}
}
