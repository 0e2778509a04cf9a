// Package resend delivers mailer emails through the Resend API.
package resend

import (
	"context"
	"fmt"
	"sort"

	"github.com/resend/resend-go/v3"

	"github.com/dmitrymomot/cineverse/pkg/mailer"
)

// Config holds Resend settings. An empty APIKey disables the sender.
type Config struct {
	APIKey      string `env:"RESEND_API_KEY"`
	SenderEmail string `env:"RESEND_FROM_EMAIL" envDefault:"no-reply@cineverse.rw"`
	SenderName  string `env:"RESEND_FROM_NAME" envDefault:"CineVerse"`
}

// Enabled reports whether an API key is configured.
func (c Config) Enabled() bool { return c.APIKey != "" }

// Sender implements mailer.Sender.
type Sender struct {
	client *resend.Client
	from   string
}

func New(cfg Config) *Sender {
	return &Sender{
		client: resend.NewClient(cfg.APIKey),
		from:   mailer.Recipient(cfg.SenderName, cfg.SenderEmail),
	}
}

func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	_, err := s.client.Emails.SendWithContext(ctx, Request(s.from, email))
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}

// Request converts email into a Resend request. Tags are sorted by name.
func Request(from string, email *mailer.Email) *resend.SendEmailRequest {
	req := &resend.SendEmailRequest{
		From:    from,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
	}
	for name, value := range email.Tags {
		req.Tags = append(req.Tags, resend.Tag{Name: name, Value: value})
	}
	sort.Slice(req.Tags, func(i, j int) bool { return req.Tags[i].Name < req.Tags[j].Name })
	return req
}
