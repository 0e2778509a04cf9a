package internal

// Handler declares routes on a router.
//
// Example:
//
//	type MovieHandler struct {
//	    movies *catalog.Service
//	}
//
//	func (h *MovieHandler) Routes(r *internal.Router) {
//	    r.Route("/movies", func(r *internal.Router) {
//	        r.GET("/{id}", h.show, internal.Where("id", `\d+`))
//	    })
//	}
type Handler interface {
	Routes(r *Router)
}

// HandlerFunc is the signature for route handlers.
// Returning a non-nil error hands the error to the router's error handler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc to add cross-cutting concerns.
// Middleware can inspect the request, short-circuit processing by not
// calling next, or post-process the buffered response.
//
// Example:
//
//	func Admin(next internal.HandlerFunc) internal.HandlerFunc {
//	    return func(c internal.Context) error {
//	        if !isAdmin(c) {
//	            return internal.ErrForbidden("Admin access required")
//	        }
//	        return next(c)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler renders errors returned from handlers.
type ErrorHandler func(Context, error) error
