package mailer

import (
	"bytes"
	"context"
	"errors"
	texttemplate "text/template"
)

// Mailer renders templates and hands the result to a Sender.
type Mailer struct {
	sender   Sender
	renderer *Renderer
	cfg      Config
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithRenderer replaces the built-in templates.
func WithRenderer(r *Renderer) Option {
	return func(m *Mailer) {
		if r != nil {
			m.renderer = r
		}
	}
}

// New creates a Mailer over the built-in templates.
func New(sender Sender, cfg Config, opts ...Option) *Mailer {
	if cfg.Layout == "" {
		cfg.Layout = "base.html"
	}
	m := &Mailer{sender: sender, renderer: NewRenderer(Templates()), cfg: cfg}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Message is a templated email.
// Messages are JSON encoded when they go through the job queue.
type Message struct {
	Data     any               `json:"data,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
	To       string            `json:"to"`
	Template string            `json:"template"`
	// Subject overrides the template's Subject metadata.
	Subject string `json:"subject,omitempty"`
}

// Send renders msg and delivers it. The subject is msg.Subject, the
// template's Subject metadata or the configured fallback, in that order,
// and is itself executed as a template with msg.Data.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}

	out, err := m.renderer.Render(m.cfg.Layout, msg.Template, msg.Data)
	if err != nil {
		return err
	}

	subject := msg.Subject
	if subject == "" {
		subject, _ = out.Metadata["Subject"].(string)
	}
	if subject == "" {
		subject = m.cfg.FallbackSubject
	}
	if subject == "" {
		return ErrNoSubject
	}
	if subject, err = expand(subject, msg.Data); err != nil {
		return errors.Join(ErrRenderFailed, err)
	}

	email := &Email{
		To:      []string{msg.To},
		Subject: subject,
		HTML:    out.HTML,
		Text:    out.Text,
		Tags:    msg.Tags,
	}
	if err := m.sender.Send(ctx, email); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}

func expand(subject string, data any) (string, error) {
	t, err := texttemplate.New("subject").Parse(subject)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
