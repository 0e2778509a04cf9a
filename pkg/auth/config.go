package auth

import "time"

// Config holds the account security policy.
type Config struct {
	MaxAttempts       int           `env:"AUTH_MAX_LOGIN_ATTEMPTS" envDefault:"5"`
	LockDuration      time.Duration `env:"AUTH_LOCKOUT_DURATION" envDefault:"15m"`
	PasswordMinLength int           `env:"AUTH_PASSWORD_MIN_LENGTH" envDefault:"8"`
	ResetTTL          time.Duration `env:"AUTH_RESET_TOKEN_TTL" envDefault:"1h"`
	VerifyTTL         time.Duration `env:"AUTH_VERIFY_TOKEN_TTL" envDefault:"24h"`
	RememberTTL       time.Duration `env:"AUTH_REMEMBER_TTL" envDefault:"720h"`
	BcryptCost        int           `env:"AUTH_BCRYPT_COST" envDefault:"10"`
}

// DefaultConfig returns the policy used when no Config is supplied.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:       5,
		LockDuration:      15 * time.Minute,
		PasswordMinLength: 8,
		ResetTTL:          time.Hour,
		VerifyTTL:         24 * time.Hour,
		RememberTTL:       30 * 24 * time.Hour,
		BcryptCost:        10,
	}
}
