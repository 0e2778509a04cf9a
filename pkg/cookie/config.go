package cookie

import (
	"net/http"
	"strings"
)

// Config holds cookie attributes shared by every cookie the application sets.
type Config struct {
	Domain   string `env:"COOKIE_DOMAIN"`
	SameSite string `env:"COOKIE_SAME_SITE" envDefault:"lax"`
	Secure   bool   `env:"COOKIE_SECURE" envDefault:"false"`
}

// Options converts the config into Manager options.
func (c Config) Options() []Option {
	return []Option{
		WithDomain(c.Domain),
		WithSecure(c.Secure),
		WithSameSite(ParseSameSite(c.SameSite)),
	}
}

// ParseSameSite maps "strict", "none" and "lax" to their http.SameSite
// values. Anything else is treated as lax.
func ParseSameSite(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
