package auth

import "context"

// Notifier delivers one-time tokens to the account owner, usually by mail.
type Notifier interface {
	PasswordReset(ctx context.Context, user *User, token string) error
	EmailVerification(ctx context.Context, user *User, token string) error
}

// NopNotifier drops every message.
type NopNotifier struct{}

func (NopNotifier) PasswordReset(context.Context, *User, string) error     { return nil }
func (NopNotifier) EmailVerification(context.Context, *User, string) error { return nil }
