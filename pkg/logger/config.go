package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// Config selects the log level, output format and Sentry forwarding.
type Config struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Format      string `env:"LOG_FORMAT" envDefault:"json"`
	SentryDSN   string `env:"SENTRY_DSN"`
	Environment string `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
	SentryLevel string `env:"SENTRY_LEVEL" envDefault:"warn"`
}

// ParseLevel accepts debug, info, warn and error in any case.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("logger: invalid level %q: %w", s, err)
	}
	return lvl, nil
}
