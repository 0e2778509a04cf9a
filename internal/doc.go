// Package internal is the HTTP kernel of CineVerse: request snapshot,
// buffered response, route compiler, named-middleware dispatcher, session
// manager and the server lifecycle.
//
// # Request flow
//
// App owns a chi mux that serves health probes and static files. Every
// other request is read into an immutable Request (body capped by
// WithMaxBodySize), handed to Router.Dispatch, and the returned Response is
// written to the connection exactly once.
//
// Dispatch walks the route list in registration order and picks the first
// route whose method matches exactly and whose compiled pattern matches the
// path. The query string never takes part in matching. The route's
// middleware names are resolved against the router registry at dispatch
// time; an unknown name fails the request with a 500.
//
// # Routes
//
// Templates use {name} placeholders. A placeholder matches one path segment
// unless a constraint says otherwise:
//
//	r.GET("/movies/{id}", h.show, internal.Where("id", `\d+`))
//	r.GET("/{path}", h.page, internal.Where("path", `.*`))
//
// Groups concatenate prefixes and middleware names:
//
//	r.Group(internal.GroupAttrs{Prefix: "/api/v1", Middleware: []string{"throttle"}}, func(r *internal.Router) {
//	    r.Group(internal.GroupAttrs{Middleware: []string{"auth"}}, func(r *internal.Router) {
//	        r.GET("/user", h.profile)
//	    })
//	})
//
// # Handlers
//
// Handlers implement Handler and declare their routes:
//
//	type Movies struct{ catalog *catalog.Service }
//
//	func (h *Movies) Routes(r *internal.Router) {
//	    r.GET("/api/v1/movies", h.list)
//	}
//
// Context embeds context.Context, so it can be passed straight to storage
// and service calls.
//
// # Errors
//
// A handler error is rendered by the ErrorHandler after the response is
// reset. HTTPError keeps its status; validator.ValidationErrors become a
// 422 with per-field messages; anything else is a 500. Requests under
// /api/ or asking for JSON get the JSON envelope, others an HTML page.
//
// # Sessions
//
// Sessions load lazily from the cookie on first use and are saved after
// the chain returns when dirty. AuthenticateSession rotates the token.
package internal
