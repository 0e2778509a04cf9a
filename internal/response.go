package internal

import (
	"bytes"
	"net/http"
	"sync"
)

// Response is a buffered HTTP response. Handlers and middleware mutate it
// freely until Send writes it to the wire exactly once.
type Response struct {
	header  http.Header
	body    bytes.Buffer
	status  int
	written bool
	sent    bool
	mu      sync.Mutex
}

// NewResponse returns an empty 200 response.
func NewResponse() *Response {
	return &Response{
		header: make(http.Header),
		status: http.StatusOK,
	}
}

// Header returns the mutable header map.
func (r *Response) Header() http.Header {
	return r.header
}

// WriteHeader sets the status code. Later calls override earlier ones
// until the response is sent.
func (r *Response) WriteHeader(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent {
		return
	}
	r.status = code
	r.written = true
}

// Write appends to the buffered body.
func (r *Response) Write(b []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent {
		return 0, ErrResponseSent
	}
	r.written = true
	return r.body.Write(b)
}

// Status returns the current status code.
func (r *Response) Status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Body returns a copy of the buffered body.
func (r *Response) Body() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return bytes.Clone(r.body.Bytes())
}

// Size returns the number of buffered body bytes.
func (r *Response) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.Len()
}

// Written reports whether a status or body has been set.
func (r *Response) Written() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// Sent reports whether Send has been called.
func (r *Response) Sent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent
}

// SetCookie adds a Set-Cookie header.
func (r *Response) SetCookie(c *http.Cookie) {
	http.SetCookie(r, c)
}

// Cookies parses the Set-Cookie headers added so far.
func (r *Response) Cookies() []*http.Cookie {
	return (&http.Response{Header: r.header}).Cookies()
}

// Cookie returns the last Set-Cookie entry with the given name, or nil.
func (r *Response) Cookie(name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range r.Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}

// Reset discards the status, the body and the content headers. Other
// headers set earlier in the chain, such as CORS, request id or session
// cookies, survive.
func (r *Response) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent {
		return
	}
	for _, h := range []string{"Content-Type", "Content-Length", "Content-Disposition", "Location"} {
		r.header.Del(h)
	}
	r.body.Reset()
	r.status = http.StatusOK
	r.written = false
}

// Send writes the response to w. A second call returns ErrResponseSent.
func (r *Response) Send(w http.ResponseWriter) error {
	r.mu.Lock()
	if r.sent {
		r.mu.Unlock()
		return ErrResponseSent
	}
	r.sent = true
	status := r.status
	body := r.body.Bytes()
	h := w.Header()
	for k, v := range r.header {
		h[k] = append([]string(nil), v...)
	}
	r.mu.Unlock()

	w.WriteHeader(status)
	if len(body) == 0 || status == http.StatusNoContent || status == http.StatusNotModified {
		return nil
	}
	_, err := w.Write(body)
	return err
}
