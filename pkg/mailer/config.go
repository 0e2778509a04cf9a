package mailer

// Config holds mailer settings.
type Config struct {
	AppName         string `env:"APP_NAME" envDefault:"CineVerse"`
	FallbackSubject string `env:"MAILER_FALLBACK_SUBJECT" envDefault:"CineVerse notification"`
	Layout          string `env:"MAILER_LAYOUT" envDefault:"base.html"`
}
