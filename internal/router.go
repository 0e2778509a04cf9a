package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/dmitrymomot/cineverse/pkg/cookie"
	"github.com/dmitrymomot/cineverse/pkg/logger"
)

// GroupAttrs are the attributes shared by routes registered inside a group.
type GroupAttrs struct {
	Prefix     string
	Middleware []string
}

// RouteOption configures a single route at registration.
type RouteOption func(*routeSpec)

type routeSpec struct {
	constraints map[string]string
	name        string
	middleware  []string
}

// With appends middleware names to the route, after group middleware.
func With(names ...string) RouteOption {
	return func(s *routeSpec) {
		s.middleware = append(s.middleware, names...)
	}
}

// Where constrains a path parameter with a regular expression.
func Where(param, pattern string) RouteOption {
	return func(s *routeSpec) {
		if s.constraints == nil {
			s.constraints = make(map[string]string)
		}
		s.constraints[param] = pattern
	}
}

// Name names the route.
func Name(name string) RouteOption {
	return func(s *routeSpec) {
		s.name = name
	}
}

// Router keeps an ordered route table and dispatches snapshots of requests
// against it. Registration order is match priority.
//
// Registration (Handle, Group, Middleware) is meant to happen before the
// router serves traffic; Dispatch and Route.Where are safe for concurrent use.
type Router struct {
	errorHandler ErrorHandler
	notFound     HandlerFunc
	logger       *slog.Logger
	cookies      *cookie.Manager
	sessions     *SessionManager
	middleware   map[string]Middleware
	routes       []*Route
	frames       []GroupAttrs
	mu           sync.RWMutex
}

// NewRouter returns an empty router with the default error handler in
// production mode and a no-op logger.
func NewRouter() *Router {
	return &Router{
		errorHandler: DefaultErrorHandler(false),
		notFound:     routeNotFound,
		logger:       logger.NewNope(),
		cookies:      cookie.New(),
		middleware:   make(map[string]Middleware),
	}
}

// Handle registers a route. The effective template is the concatenation of
// the enclosing group prefixes and template; group middleware runs before
// route middleware. It panics if a constraint does not compile.
func (r *Router) Handle(method, template string, h HandlerFunc, opts ...RouteOption) *Route {
	var spec routeSpec
	for _, opt := range opts {
		opt(&spec)
	}

	var prefix strings.Builder
	var names []string
	for _, f := range r.frames {
		prefix.WriteString(f.Prefix)
		names = append(names, f.Middleware...)
	}
	names = append(names, spec.middleware...)

	route, err := newRoute(method, prefix.String()+template, h, names, spec.constraints)
	if err != nil {
		panic(fmt.Sprintf("internal: register %s %s: %v", method, template, err))
	}
	route.name = spec.name

	r.mu.Lock()
	r.routes = append(r.routes, route)
	r.mu.Unlock()
	return route
}

func (r *Router) GET(template string, h HandlerFunc, opts ...RouteOption) *Route {
	return r.Handle(http.MethodGet, template, h, opts...)
}

func (r *Router) POST(template string, h HandlerFunc, opts ...RouteOption) *Route {
	return r.Handle(http.MethodPost, template, h, opts...)
}

func (r *Router) PUT(template string, h HandlerFunc, opts ...RouteOption) *Route {
	return r.Handle(http.MethodPut, template, h, opts...)
}

func (r *Router) PATCH(template string, h HandlerFunc, opts ...RouteOption) *Route {
	return r.Handle(http.MethodPatch, template, h, opts...)
}

func (r *Router) DELETE(template string, h HandlerFunc, opts ...RouteOption) *Route {
	return r.Handle(http.MethodDelete, template, h, opts...)
}

func (r *Router) OPTIONS(template string, h HandlerFunc, opts ...RouteOption) *Route {
	return r.Handle(http.MethodOptions, template, h, opts...)
}

// Group registers the routes declared by fn under attrs. The group frame is
// popped when fn returns, including when it panics.
func (r *Router) Group(attrs GroupAttrs, fn func(r *Router)) {
	r.frames = append(r.frames, attrs)
	defer func() {
		r.frames = r.frames[:len(r.frames)-1]
	}()
	fn(r)
}

// Route is Group with only a prefix.
func (r *Router) Route(prefix string, fn func(r *Router)) {
	r.Group(GroupAttrs{Prefix: prefix}, fn)
}

// Middleware registers a named middleware. Names are resolved at dispatch,
// so routes may reference middleware registered later.
func (r *Router) Middleware(name string, mw Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware[name] = mw
}

// Constrain sets a constraint on an already registered route.
func (r *Router) Constrain(route *Route, param, pattern string) error {
	return route.Where(param, pattern)
}

// Routes returns the registered routes in priority order.
func (r *Router) Routes() []*Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Route(nil), r.routes...)
}

// Lookup returns the named route, or nil.
func (r *Router) Lookup(name string) *Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, route := range r.routes {
		if route.name == name {
			return route
		}
	}
	return nil
}

// Dispatch runs the first route whose method equals the request method and
// whose matcher accepts the path. Errors and panics raised by the chain are
// converted by the error handler, so Dispatch always returns a response.
func (r *Router) Dispatch(req *Request) *Response {
	res := NewResponse()
	c := newContext(r, req, res)

	h := r.notFound
	if route, params := r.find(req.Method(), req.Path()); route != nil {
		c.params = params
		c.route = route
		chain, err := r.chain(route)
		if err != nil {
			h = func(Context) error { return err }
		} else {
			h = chain
		}
	}

	if err := r.run(h, c); err != nil {
		r.handleError(c, err)
	}
	c.flushSession()
	return res
}

func (r *Router) find(method, path string) (*Route, map[string]string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, route := range r.routes {
		if route.method != method {
			continue
		}
		if params, ok := route.Match(path); ok {
			return route, params
		}
	}
	return nil, nil
}

// chain wraps the route handler; the first listed middleware is outermost.
func (r *Router) chain(route *Route) (HandlerFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h := route.handler
	for i := len(route.middleware) - 1; i >= 0; i-- {
		name := route.middleware[i]
		mw, ok := r.middleware[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMiddleware, name)
		}
		h = mw(h)
	}
	return h, nil
}

func (r *Router) run(h HandlerFunc, c *requestContext) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(c, "panic in handler",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("%w: %v", ErrPanic, rec)
		}
	}()
	return h(c)
}

func (r *Router) handleError(c *requestContext, err error) {
	c.res.Reset()
	herr := r.errorHandler(c, err)
	if herr == nil {
		return
	}
	r.logger.ErrorContext(c, "error handler failed",
		slog.Any("error", errors.Join(err, herr)),
	)
	c.res.Reset()
	c.res.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.res.WriteHeader(http.StatusInternalServerError)
	_, _ = c.res.Write([]byte(http.StatusText(http.StatusInternalServerError)))
}

func routeNotFound(Context) error {
	return ErrNotFound("Route not found")
}
