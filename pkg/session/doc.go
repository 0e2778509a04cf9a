// Package session provides the per-visitor session value bag and its
// persistence.
//
// A [Session] carries arbitrary JSON-compatible values, the bound user, a
// read-once flash area and a CSRF token:
//
//	sess.SetFlash("status", "Profile updated")
//	msg := sess.FlashString("status") // removed after this read
//
//	token := sess.CSRFToken()         // generated once per session
//	ok := sess.VerifyCSRF(formToken)  // constant-time compare
//
// Flash values live under "_flash_<key>" and the CSRF token under
// "_csrf_token", so both survive any store.
//
// # Stores
//
// [Store] is implemented by:
//
//   - [DBStore]: the sessions table through pkg/db
//   - [CacheStore]: any pkg/cache backend (memory, file, redis, memcached)
//
// [Open] selects the store from SESSION_DRIVER:
//
//	SESSION_DRIVER      - database, memory, file, redis or memcached (default: database)
//	SESSION_COOKIE      - Cookie name (default: cineverse_session)
//	SESSION_LIFETIME    - Idle lifetime (default: 120m)
//	SESSION_SECURE      - Secure cookie flag (default: false)
//	SESSION_GC_SCHEDULE - Cron spec for expired session cleanup (default: @every 30m)
//
// Stores implementing [Collector] are garbage collected on that schedule by
// the serve command. Cookie handling lives in the HTTP layer.
package session
