package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/cineverse/pkg/i18n"
	"github.com/dmitrymomot/cineverse/pkg/session"
	"github.com/dmitrymomot/cineverse/pkg/validator"
)

// LanguageKey is the context key used to store the resolved language.
type LanguageKey struct{}

// TranslatorKey is the context key of the request *i18n.Translator.
type TranslatorKey struct{}

// Context gives handlers access to the request snapshot, the buffered
// response, route parameters and the session. It also implements
// context.Context by delegating to the request context.
type Context interface {
	context.Context

	// Context returns the current context.Context, including values added
	// with Set.
	Context() context.Context

	// SetContext replaces the request context, e.g. to add a deadline.
	SetContext(ctx context.Context)

	// Request returns the immutable request snapshot.
	Request() *Request

	// Response returns the buffered response.
	Response() *Response

	// Route returns the matched route, or nil when nothing matched.
	Route() *Route

	// Param returns the path parameter value by name.
	Param(name string) string

	// Params returns all path parameters.
	Params() map[string]string

	// Query returns the query parameter value by name.
	Query(name string) string

	// QueryDefault returns the query parameter value or a default.
	QueryDefault(name, defaultValue string) string

	// Input returns a parameter from the query string or the body.
	Input(name string) string

	// Header returns the request header value by name.
	Header(name string) string

	// SetHeader sets a response header.
	SetHeader(name, value string)

	// WantsJSON reports whether errors and pages should render as JSON:
	// the client asked for JSON, or the path is under /api/.
	WantsJSON() bool

	// Bind decodes the JSON or form body into v and validates it.
	// Malformed input returns a 400 HTTPError; failed rules return
	// validator.ValidationErrors.
	Bind(v any) error

	// BindQuery decodes query parameters into v and validates it.
	BindQuery(v any) error

	JSON(code int, v any) error
	HTML(code int, html string) error
	String(code int, s string) error
	Blob(code int, contentType string, b []byte) error
	NoContent(code int) error
	Redirect(code int, url string) error

	// Error creates an HTTPError without writing a response.
	Error(code int, message string, opts ...HTTPErrorOption) *HTTPError

	// Written returns true if a status or body has been set.
	Written() bool

	Logger() *slog.Logger
	LogDebug(msg string, attrs ...any)
	LogInfo(msg string, attrs ...any)
	LogWarn(msg string, attrs ...any)
	LogError(msg string, attrs ...any)

	// Set stores a value in the request context.
	Set(key, value any)

	// Get retrieves a value from the request context.
	Get(key any) any

	// Cookie returns a plain cookie value.
	Cookie(name string) (string, error)
	SetCookie(name, value string, maxAge int)
	DeleteCookie(name string)

	// CookieSigned returns an HMAC-signed cookie value.
	CookieSigned(name string) (string, error)
	SetCookieSigned(name, value string, maxAge int) error

	// Session returns the current session, or nil when the request has none.
	// Returns session.ErrNotConfigured if no session manager is set.
	Session() (*session.Session, error)

	// StartSession returns the current session, creating one if needed.
	StartSession() (*session.Session, error)

	// AuthenticateSession binds the session to a user and rotates its token.
	AuthenticateSession(userID string) error

	// DestroySession deletes the session and clears its cookie.
	DestroySession() error

	// Language returns the language resolved by the locale middleware.
	Language() string

	// T translates key for the request language. Without a translator,
	// or for an unknown key, key is returned as is.
	T(key string, values ...i18n.M) string
}

// requestContext implements the Context interface.
type requestContext struct {
	ctx           context.Context
	router        *Router
	req           *Request
	res           *Response
	route         *Route
	params        map[string]string
	session       *session.Session
	sessionLoaded bool
	cookieIssued  bool
}

func newContext(r *Router, req *Request, res *Response) *requestContext {
	return &requestContext{
		ctx:    req.Context(),
		router: r,
		req:    req,
		res:    res,
		params: map[string]string{},
	}
}

func (c *requestContext) Deadline() (time.Time, bool) { return c.ctx.Deadline() }
func (c *requestContext) Done() <-chan struct{}       { return c.ctx.Done() }
func (c *requestContext) Err() error                  { return c.ctx.Err() }
func (c *requestContext) Value(key any) any           { return c.ctx.Value(key) }

func (c *requestContext) Context() context.Context { return c.ctx }

func (c *requestContext) SetContext(ctx context.Context) {
	if ctx != nil {
		c.ctx = ctx
	}
}

func (c *requestContext) Request() *Request   { return c.req }
func (c *requestContext) Response() *Response { return c.res }
func (c *requestContext) Route() *Route       { return c.route }

func (c *requestContext) Param(name string) string { return c.params[name] }

func (c *requestContext) Params() map[string]string {
	out := make(map[string]string, len(c.params))
	for k, v := range c.params {
		out[k] = v
	}
	return out
}

func (c *requestContext) Query(name string) string { return c.req.Query(name) }

func (c *requestContext) QueryDefault(name, defaultValue string) string {
	if v := c.req.Query(name); v != "" {
		return v
	}
	return defaultValue
}

func (c *requestContext) Input(name string) string { return c.req.Input(name) }

func (c *requestContext) Header(name string) string { return c.req.Header(name) }

func (c *requestContext) SetHeader(name, value string) { c.res.Header().Set(name, value) }

func (c *requestContext) WantsJSON() bool {
	return c.req.ExpectsJSON() || strings.HasPrefix(c.req.Path(), "/api/")
}

func (c *requestContext) Bind(v any) error {
	if c.req.IsJSON() {
		if len(c.req.raw) > 0 {
			if err := json.Unmarshal(c.req.raw, v); err != nil {
				return ErrBadRequest("Invalid JSON body", WithError(err))
			}
		}
	} else if err := bindValues(c.req.All(), v); err != nil {
		return ErrBadRequest("Invalid form data", WithError(err))
	}
	return validator.Struct(v)
}

func (c *requestContext) BindQuery(v any) error {
	values := make(map[string]any)
	for k, vs := range c.req.query {
		if len(vs) == 1 {
			values[k] = vs[0]
		} else {
			values[k] = vs
		}
	}
	if err := bindValues(values, v); err != nil {
		return ErrBadRequest("Invalid query parameters", WithError(err))
	}
	return validator.Struct(v)
}

func (c *requestContext) JSON(code int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("internal: encode json: %w", err)
	}
	return c.Blob(code, "application/json; charset=utf-8", b)
}

func (c *requestContext) HTML(code int, html string) error {
	return c.Blob(code, "text/html; charset=utf-8", []byte(html))
}

func (c *requestContext) String(code int, s string) error {
	return c.Blob(code, "text/plain; charset=utf-8", []byte(s))
}

func (c *requestContext) Blob(code int, contentType string, b []byte) error {
	c.res.Header().Set("Content-Type", contentType)
	c.res.WriteHeader(code)
	_, err := c.res.Write(b)
	return err
}

func (c *requestContext) NoContent(code int) error {
	c.res.WriteHeader(code)
	return nil
}

func (c *requestContext) Redirect(code int, url string) error {
	if code < http.StatusMultipleChoices || code > http.StatusPermanentRedirect {
		code = http.StatusFound
	}
	c.res.Header().Set("Location", url)
	c.res.WriteHeader(code)
	return nil
}

func (c *requestContext) Error(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(code, message, opts...)
}

func (c *requestContext) Written() bool { return c.res.Written() }

func (c *requestContext) Logger() *slog.Logger { return c.router.logger }

func (c *requestContext) LogDebug(msg string, attrs ...any) {
	c.router.logger.DebugContext(c.ctx, msg, attrs...)
}

func (c *requestContext) LogInfo(msg string, attrs ...any) {
	c.router.logger.InfoContext(c.ctx, msg, attrs...)
}

func (c *requestContext) LogWarn(msg string, attrs ...any) {
	c.router.logger.WarnContext(c.ctx, msg, attrs...)
}

func (c *requestContext) LogError(msg string, attrs ...any) {
	c.router.logger.ErrorContext(c.ctx, msg, attrs...)
}

func (c *requestContext) Set(key, value any) {
	c.ctx = context.WithValue(c.ctx, key, value)
}

func (c *requestContext) Get(key any) any {
	return c.ctx.Value(key)
}

func (c *requestContext) Cookie(name string) (string, error) {
	return c.router.cookies.Get(c.req.HTTP(), name)
}

func (c *requestContext) SetCookie(name, value string, maxAge int) {
	c.router.cookies.Set(c.res, name, value, maxAge)
}

func (c *requestContext) DeleteCookie(name string) {
	c.router.cookies.Delete(c.res, name)
}

func (c *requestContext) CookieSigned(name string) (string, error) {
	return c.router.cookies.GetSigned(c.req.HTTP(), name)
}

func (c *requestContext) SetCookieSigned(name, value string, maxAge int) error {
	return c.router.cookies.SetSigned(c.res, name, value, maxAge)
}

func (c *requestContext) Session() (*session.Session, error) {
	sm := c.router.sessions
	if sm == nil {
		return nil, session.ErrNotConfigured
	}
	if c.sessionLoaded {
		return c.session, nil
	}
	sess, err := sm.Load(c.ctx, c.req)
	if err != nil {
		return nil, err
	}
	c.session = sess
	c.sessionLoaded = true
	return sess, nil
}

func (c *requestContext) StartSession() (*session.Session, error) {
	sess, err := c.Session()
	if err != nil {
		return nil, err
	}
	if sess != nil {
		return sess, nil
	}
	sess, err = c.router.sessions.Create(c.ctx, c.req)
	if err != nil {
		return nil, err
	}
	c.session = sess
	c.cookieIssued = true
	return sess, nil
}

func (c *requestContext) AuthenticateSession(userID string) error {
	sess, err := c.StartSession()
	if err != nil {
		return err
	}
	sess.SetUser(userID)
	if err := c.router.sessions.Rotate(c.ctx, sess); err != nil {
		return err
	}
	c.cookieIssued = true
	return nil
}

func (c *requestContext) DestroySession() error {
	sm := c.router.sessions
	if sm == nil {
		return session.ErrNotConfigured
	}
	if _, err := c.Session(); err != nil {
		return err
	}
	if err := sm.Destroy(c.ctx, c.session); err != nil {
		return err
	}
	c.session = nil
	c.cookieIssued = false
	sm.ClearCookie(c.res)
	return nil
}

// flushSession persists a dirty session and issues the cookie when the
// token is new. It runs after the chain returns.
func (c *requestContext) flushSession() {
	sm := c.router.sessions
	if sm == nil || c.session == nil {
		return
	}
	if err := sm.Save(c.ctx, c.session); err != nil {
		c.LogError("failed to save session", slog.Any("error", err))
		return
	}
	if c.cookieIssued {
		sm.SetCookie(c.res, c.session)
	}
}

func (c *requestContext) Language() string {
	if v, ok := c.Get(LanguageKey{}).(string); ok {
		return v
	}
	return ""
}

func (c *requestContext) T(key string, values ...i18n.M) string {
	if tr := translator(c); tr != nil {
		return tr.T(key, values...)
	}
	return key
}

func translator(c Context) *i18n.Translator {
	tr, _ := c.Get(TranslatorKey{}).(*i18n.Translator)
	return tr
}
