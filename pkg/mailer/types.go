package mailer

import (
	"context"
	"fmt"
)

// Deliverer accepts templated messages. *Mailer delivers them at once.
type Deliverer interface {
	Send(ctx context.Context, msg Message) error
}

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// Email is a rendered message.
type Email struct {
	// Tags are name/value pairs for provider side filtering.
	Tags    map[string]string
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Recipient formats an RFC 5322 address, "Name <email>" or just email.
func Recipient(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}
