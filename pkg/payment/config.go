package payment

// Config holds collection defaults.
type Config struct {
	Currency    string `env:"PAYMENT_CURRENCY" envDefault:"RWF"`
	Country     string `env:"PAYMENT_COUNTRY" envDefault:"RW"`
	Description string `env:"PAYMENT_DESCRIPTION" envDefault:"CineVerse Subscription"`
}
