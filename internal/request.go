package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrymomot/cineverse/pkg/clientip"
)

// DefaultMaxBodySize limits how much of a request body is buffered.
const DefaultMaxBodySize int64 = 32 << 20

// Request is an immutable snapshot of an incoming HTTP request. The body is
// read once when the snapshot is taken; form and JSON object bodies are
// decoded into body parameters.
type Request struct {
	http       *http.Request
	query      url.Values
	body       map[string]any
	headers    http.Header
	cookies    map[string]string
	files      map[string][]*multipart.FileHeader
	method     string
	path       string
	remoteAddr string
	raw        []byte
}

// NewRequest snapshots r, buffering at most DefaultMaxBodySize bytes of body.
func NewRequest(r *http.Request) (*Request, error) {
	return NewRequestLimit(r, DefaultMaxBodySize)
}

// NewRequestLimit snapshots r with a custom body limit.
func NewRequestLimit(r *http.Request, limit int64) (*Request, error) {
	req := &Request{
		http:       r,
		method:     strings.ToUpper(r.Method),
		path:       r.URL.Path,
		query:      r.URL.Query(),
		headers:    r.Header.Clone(),
		cookies:    make(map[string]string),
		body:       make(map[string]any),
		files:      make(map[string][]*multipart.FileHeader),
		remoteAddr: r.RemoteAddr,
	}
	if req.path == "" {
		req.path = "/"
	}
	if req.headers == nil {
		req.headers = make(http.Header)
	}
	for _, c := range r.Cookies() {
		if _, ok := req.cookies[c.Name]; !ok {
			req.cookies[c.Name] = c.Value
		}
	}

	if r.Body == nil || r.Body == http.NoBody {
		return req, nil
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	_ = r.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("internal: read body: %w", err)
	}
	if int64(len(raw)) > limit {
		return nil, ErrBodyTooLarge
	}
	req.raw = raw
	r.Body = io.NopCloser(bytes.NewReader(raw))

	if err := req.parseBody(limit); err != nil {
		return nil, err
	}
	// leave the body readable for anything that still wants the original request
	r.Body = io.NopCloser(bytes.NewReader(raw))
	return req, nil
}

func (r *Request) parseBody(limit int64) error {
	if len(r.raw) == 0 {
		return nil
	}
	mediaType, _, _ := mime.ParseMediaType(r.headers.Get("Content-Type"))

	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		var obj map[string]any
		// a non-object JSON body stays available through RawBody only
		if err := json.Unmarshal(r.raw, &obj); err == nil && obj != nil {
			r.body = obj
		}
	case mediaType == "multipart/form-data":
		if err := r.http.ParseMultipartForm(limit); err != nil {
			return fmt.Errorf("internal: parse multipart form: %w", err)
		}
		r.addForm(r.http.MultipartForm.Value)
		maps.Copy(r.files, r.http.MultipartForm.File)
	case mediaType == "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(r.raw))
		if err != nil {
			return fmt.Errorf("internal: parse form: %w", err)
		}
		r.addForm(values)
	}
	return nil
}

func (r *Request) addForm(values map[string][]string) {
	for k, v := range values {
		switch len(v) {
		case 0:
		case 1:
			r.body[k] = v[0]
		default:
			r.body[k] = append([]string(nil), v...)
		}
	}
}

// Method returns the upper-cased request method.
func (r *Request) Method() string { return r.method }

// Path returns the URL path without the query string. Never empty.
func (r *Request) Path() string { return r.path }

// Context returns the context of the underlying request.
func (r *Request) Context() context.Context { return r.http.Context() }

// HTTP returns the original request.
func (r *Request) HTTP() *http.Request { return r.http }

// Query returns the first value of a query parameter.
func (r *Request) Query(name string) string { return r.query.Get(name) }

// QueryValues returns a copy of the query parameters.
func (r *Request) QueryValues() url.Values {
	out := make(url.Values, len(r.query))
	for k, v := range r.query {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Body returns a copy of the decoded body parameters.
func (r *Request) Body() map[string]any { return maps.Clone(r.body) }

// RawBody returns the buffered body bytes.
func (r *Request) RawBody() []byte { return bytes.Clone(r.raw) }

// Input returns a parameter from the query string or, failing that, the
// body, rendered as a string. Missing parameters return "".
func (r *Request) Input(name string) string {
	if v, ok := r.query[name]; ok && len(v) > 0 {
		return v[0]
	}
	if v, ok := r.body[name]; ok {
		return stringify(v)
	}
	return ""
}

// Has reports whether the parameter is present in the query or the body.
func (r *Request) Has(name string) bool {
	if _, ok := r.query[name]; ok {
		return true
	}
	_, ok := r.body[name]
	return ok
}

// All merges query and body parameters. Body values win.
func (r *Request) All() map[string]any {
	out := make(map[string]any, len(r.query)+len(r.body))
	for k, v := range r.query {
		if len(v) == 1 {
			out[k] = v[0]
		} else {
			out[k] = append([]string(nil), v...)
		}
	}
	maps.Copy(out, r.body)
	return out
}

// Only returns the merged parameters restricted to keys.
func (r *Request) Only(keys ...string) map[string]any {
	all := r.All()
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := all[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Header returns a request header value.
func (r *Request) Header(name string) string { return r.headers.Get(name) }

// Headers returns a copy of the request headers.
func (r *Request) Headers() http.Header { return r.headers.Clone() }

// Cookie returns the value of the named cookie.
func (r *Request) Cookie(name string) (string, bool) {
	v, ok := r.cookies[name]
	return v, ok
}

// File returns the first uploaded file for the form key, or nil.
func (r *Request) File(name string) *multipart.FileHeader {
	if fh := r.files[name]; len(fh) > 0 {
		return fh[0]
	}
	return nil
}

// HasFile reports whether a file was uploaded under the form key.
func (r *Request) HasFile(name string) bool {
	return r.File(name) != nil
}

// RemoteAddr returns the peer address of the connection.
func (r *Request) RemoteAddr() string { return r.remoteAddr }

// Host returns the request host.
func (r *Request) Host() string { return r.http.Host }

// IsAJAX reports whether the request came from XMLHttpRequest.
func (r *Request) IsAJAX() bool {
	return r.headers.Get("X-Requested-With") == "XMLHttpRequest"
}

// ExpectsJSON reports whether the client wants a JSON response.
func (r *Request) ExpectsJSON() bool {
	return r.IsAJAX() || strings.Contains(r.headers.Get("Accept"), "application/json")
}

// IsJSON reports whether the body was sent as JSON.
func (r *Request) IsJSON() bool {
	mediaType, _, _ := mime.ParseMediaType(r.headers.Get("Content-Type"))
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// ClientIP returns the client address, honoring proxy headers.
func (r *Request) ClientIP() string {
	return clientip.FromHeaders(r.headers, r.remoteAddr)
}

func (r *Request) UserAgent() string { return r.headers.Get("User-Agent") }

func (r *Request) Referrer() string { return r.headers.Get("Referer") }

// IsSecure reports whether the request arrived over TLS, directly or
// through a proxy that sets X-Forwarded-Proto.
func (r *Request) IsSecure() bool {
	if r.http.TLS != nil {
		return true
	}
	return strings.EqualFold(r.headers.Get("X-Forwarded-Proto"), "https")
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		if len(t) == 0 {
			return ""
		}
		return t[0]
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// IsBodyTooLarge reports whether err came from an oversized body.
func IsBodyTooLarge(err error) bool {
	return errors.Is(err, ErrBodyTooLarge)
}
