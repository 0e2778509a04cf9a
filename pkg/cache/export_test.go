package cache

// Exported for tests in package cache_test.
var (
	MemcacheExpiration = memcacheExpiration
	ValidMemcacheKey   = validMemcacheKey
)
