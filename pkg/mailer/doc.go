// Package mailer sends the account emails of CineVerse: password reset
// links and email verification links.
//
// Messages are markdown templates with YAML frontmatter, rendered with
// goldmark into an HTML layout. The plain text part is the processed
// markdown. Templates live in the embedded templates directory:
//
//	---
//	Subject: Reset your {{.AppName}} password
//	---
//	Hello {{.Name}},
//
//	[!button|Choose a new password]({{.Link}})
//
// The [!button|Label](url) syntax renders a call-to-action link.
//
// Delivery goes through a Sender. The resend subpackage talks to the
// Resend API; LogSender writes messages to a slog.Logger for local
// development. Notifier adapts a Mailer to auth.Notifier:
//
//	m := mailer.New(resend.New(cfg.Resend), cfg.Mailer)
//	authManager := auth.NewManager(conn, tokens, revoked,
//	    auth.WithNotifier(mailer.NewNotifier(m, cfg.App.URL)),
//	)
package mailer
