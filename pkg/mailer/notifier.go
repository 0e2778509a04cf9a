package mailer

import (
	"context"
	"net/url"
	"strings"

	"github.com/dmitrymomot/cineverse/pkg/auth"
)

// Account email templates.
const (
	TemplatePasswordReset     = "password_reset.md"
	TemplateEmailVerification = "email_verification.md"
)

// Notifier mails account tokens as links to the web pages that consume
// them. It implements auth.Notifier.
type Notifier struct {
	out     Deliverer
	appName string
	baseURL string
}

// NewNotifier creates a Notifier. baseURL is the public site address.
// out is usually a *Mailer, or a queue that sends through one later.
func NewNotifier(out Deliverer, appName, baseURL string) *Notifier {
	return &Notifier{out: out, appName: appName, baseURL: strings.TrimRight(baseURL, "/")}
}

func (n *Notifier) PasswordReset(ctx context.Context, user *auth.User, token string) error {
	return n.send(ctx, user, TemplatePasswordReset, "/auth/reset-password/", token)
}

func (n *Notifier) EmailVerification(ctx context.Context, user *auth.User, token string) error {
	return n.send(ctx, user, TemplateEmailVerification, "/auth/verify-email/", token)
}

func (n *Notifier) send(ctx context.Context, user *auth.User, tmpl, path, token string) error {
	return n.out.Send(ctx, Message{
		To:       Recipient(user.FullName(), user.Email),
		Template: tmpl,
		Tags:     map[string]string{"category": strings.TrimSuffix(tmpl, ".md")},
		Data: map[string]any{
			"AppName": n.appName,
			"Name":    user.FirstName,
			"Link":    n.baseURL + path + url.PathEscape(token),
		},
	})
}
