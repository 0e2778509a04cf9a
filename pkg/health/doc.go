// Package health serves the liveness and readiness probes of CineVerse.
//
// Liveness always answers OK while the process runs. Readiness runs every
// registered check concurrently under a shared deadline and answers 503 if
// any of them fails. Both endpoints answer plain text unless the client asks
// for JSON through the Accept header or ?format=json.
package health
