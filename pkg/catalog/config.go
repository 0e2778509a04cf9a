package catalog

import "time"

// Config holds catalog configuration.
type Config struct {
	CacheTTL     time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"10m"`
	ListingLimit int           `env:"CATALOG_LISTING_LIMIT" envDefault:"20"`
	PerPage      int           `env:"CATALOG_PER_PAGE" envDefault:"20"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{CacheTTL: 10 * time.Minute, ListingLimit: 20, PerPage: 20}
}
