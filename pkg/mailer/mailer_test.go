package mailer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cineverse/pkg/auth"
	"github.com/dmitrymomot/cineverse/pkg/mailer"
	"github.com/dmitrymomot/cineverse/pkg/mailer/resend"
)

type outbox struct {
	err  error
	sent []*mailer.Email
	mu   sync.Mutex
}

func (o *outbox) Send(_ context.Context, email *mailer.Email) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, email)
	return nil
}

var testTemplates = fstest.MapFS{
	"layouts/base.html": {Data: []byte(`<html><body>{{.Content}}</body></html>`)},
	"welcome.md":        {Data: []byte("---\nSubject: Welcome {{.Name}}\n---\nHello **{{.Name}}**!\n\n[!button|Start watching](https://cineverse.test/movies?a=1&b=2)\n")},
	"plain.md":          {Data: []byte("No frontmatter here.\n")},
	"broken.md":         {Data: []byte("---\nSubject: never closed\n")},
}

func newMailer(o *outbox, cfg mailer.Config) *mailer.Mailer {
	return mailer.New(o, cfg, mailer.WithRenderer(mailer.NewRenderer(testTemplates)))
}

func TestMailerSend(t *testing.T) {
	t.Parallel()

	t.Run("renders subject html and text", func(t *testing.T) {
		t.Parallel()
		o := &outbox{}
		m := newMailer(o, mailer.Config{})

		err := m.Send(context.Background(), mailer.Message{
			To:       "alice@example.com",
			Template: "welcome.md",
			Data:     map[string]string{"Name": "Alice"},
		})
		require.NoError(t, err)
		require.Len(t, o.sent, 1)

		email := o.sent[0]
		assert.Equal(t, []string{"alice@example.com"}, email.To)
		assert.Equal(t, "Welcome Alice", email.Subject)
		assert.Contains(t, email.HTML, "<html><body>")
		assert.Contains(t, email.HTML, "<strong>Alice</strong>")
		assert.Contains(t, email.HTML, `<a href="https://cineverse.test/movies?a=1&amp;b=2" class="btn">Start watching</a>`)
		assert.Contains(t, email.Text, "Hello **Alice**!")
		assert.NotContains(t, email.Text, "<strong>")
	})

	t.Run("subject precedence", func(t *testing.T) {
		t.Parallel()
		o := &outbox{}
		m := newMailer(o, mailer.Config{FallbackSubject: "Fallback"})

		ctx := context.Background()
		require.NoError(t, m.Send(ctx, mailer.Message{To: "a@example.com", Template: "welcome.md", Subject: "Hi {{.Name}}", Data: map[string]string{"Name": "Bo"}}))
		require.NoError(t, m.Send(ctx, mailer.Message{To: "a@example.com", Template: "plain.md"}))

		require.Len(t, o.sent, 2)
		assert.Equal(t, "Hi Bo", o.sent[0].Subject)
		assert.Equal(t, "Fallback", o.sent[1].Subject)
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		m := newMailer(&outbox{}, mailer.Config{})

		assert.ErrorIs(t, m.Send(ctx, mailer.Message{Template: "welcome.md"}), mailer.ErrNoRecipient)
		assert.ErrorIs(t, m.Send(ctx, mailer.Message{To: "a@example.com", Template: "missing.md"}), mailer.ErrTemplateNotFound)
		assert.ErrorIs(t, m.Send(ctx, mailer.Message{To: "a@example.com", Template: "broken.md"}), mailer.ErrInvalidFrontmatter)
		assert.ErrorIs(t, m.Send(ctx, mailer.Message{To: "a@example.com", Template: "plain.md"}), mailer.ErrNoSubject)

		failing := newMailer(&outbox{err: errors.New("boom")}, mailer.Config{})
		assert.ErrorIs(t, failing.Send(ctx, mailer.Message{To: "a@example.com", Template: "welcome.md"}), mailer.ErrSendFailed)

		noLayout := newMailer(&outbox{}, mailer.Config{Layout: "fancy.html"})
		assert.ErrorIs(t, noLayout.Send(ctx, mailer.Message{To: "a@example.com", Template: "welcome.md"}), mailer.ErrLayoutNotFound)
	})

	t.Run("concurrent renders", func(t *testing.T) {
		t.Parallel()
		o := &outbox{}
		m := newMailer(o, mailer.Config{})

		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = m.Send(context.Background(), mailer.Message{To: "a@example.com", Template: "welcome.md", Data: map[string]string{"Name": "X"}})
			}()
		}
		wg.Wait()
		assert.Len(t, o.sent, 20)
	})
}

func TestNotifier(t *testing.T) {
	t.Parallel()

	o := &outbox{}
	n := mailer.NewNotifier(mailer.New(o, mailer.Config{AppName: "CineVerse"}), "CineVerse", "https://cineverse.test/")
	user := &auth.User{FirstName: "Bob", LastName: "Tester", Email: "bob@example.com"}

	var _ auth.Notifier = n
	ctx := context.Background()
	require.NoError(t, n.PasswordReset(ctx, user, "abc123"))
	require.NoError(t, n.EmailVerification(ctx, user, "def456"))
	require.Len(t, o.sent, 2)

	reset := o.sent[0]
	assert.Equal(t, []string{"Bob Tester <bob@example.com>"}, reset.To)
	assert.Equal(t, "Reset your CineVerse password", reset.Subject)
	assert.Contains(t, reset.HTML, `href="https://cineverse.test/auth/reset-password/abc123"`)
	assert.Contains(t, reset.Text, "Hello Bob,")
	assert.Equal(t, "password_reset", reset.Tags["category"])

	verify := o.sent[1]
	assert.Equal(t, "Confirm your email address", verify.Subject)
	assert.Contains(t, verify.HTML, `href="https://cineverse.test/auth/verify-email/def456"`)
}

func TestResendRequest(t *testing.T) {
	t.Parallel()

	req := resend.Request("CineVerse <no-reply@cineverse.rw>", &mailer.Email{
		To:      []string{"bob@example.com"},
		Subject: "Hello",
		HTML:    "<p>Hi</p>",
		Text:    "Hi",
		Tags:    map[string]string{"z": "1", "category": "password_reset"},
	})
	assert.Equal(t, "CineVerse <no-reply@cineverse.rw>", req.From)
	assert.Equal(t, []string{"bob@example.com"}, req.To)
	assert.Equal(t, "<p>Hi</p>", req.Html)
	require.Len(t, req.Tags, 2)
	assert.Equal(t, "category", req.Tags[0].Name)
	assert.Equal(t, "z", req.Tags[1].Name)
}

func TestRecipient(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "bob@example.com", mailer.Recipient("", "bob@example.com"))
	assert.Equal(t, "Bob <bob@example.com>", mailer.Recipient("Bob", "bob@example.com"))
}
