// Package handlers holds the HTTP controllers of CineVerse. Each type
// implements internal.Handler and gets its services through its
// constructor.
//
// The API handlers (Auth, User, Movies, Payment, Search, Analytics, Admin,
// Public, Webhooks, System) register paths relative to the API group, so
// the application mounts them under /api/v1. They answer with the Envelope
// body and leave error rendering to the kernel; MapError translates
// service errors into statuses.
//
// Web renders the site with html/template and follows the post, flash,
// redirect pattern: failed form posts flash the message and send the
// visitor back. Its catch-all route must be registered last.
package handlers
