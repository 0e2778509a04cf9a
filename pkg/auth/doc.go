// Package auth implements account registration, credential login with
// lockout, JWT issuance and revocation, remember-me tokens, password reset
// and email verification on top of the database gateway.
//
// A Manager is built once at startup and shared:
//
//	tokens, _ := jwt.New(cfg.JWT)
//	revoked, _ := cache.Open[string](cacheCfg, cacheCfg.Driver, "jwt_revoked", clients)
//	m := auth.NewManager(conn, tokens, revoked,
//		auth.WithConfig(cfg.Auth),
//		auth.WithNotifier(notifier),
//		auth.WithLogger(log),
//	)
//
//	user, err := m.Register(ctx, auth.RegisterInput{...})
//	res, err := m.Login(ctx, auth.LoginInput{Identifier: "alice", Password: "..."})
//
// # Lockout
//
// Every wrong password increments users.login_attempts. When the counter
// reaches Config.MaxAttempts the account is locked until now+LockDuration
// and further attempts fail with ErrAccountLocked without the password
// being checked. Once the lock expires the counter starts over and a
// correct password resets it.
//
// # Tokens
//
// Access tokens are HS256 JWTs (see package jwt). Logout and Refresh add
// the token's jti to a cache-backed denylist until the token would have
// expired anyway, so Authenticate rejects it from then on.
//
// Remember, password reset and email verification tokens are 32 random
// bytes in hex. Only their SHA-256 digest is stored.
//
// # Errors
//
// Credential failures share ErrInvalidCredentials so callers cannot tell an
// unknown identifier from a wrong password. Input problems are returned as
// validator.ValidationErrors keyed by JSON field name.
package auth
