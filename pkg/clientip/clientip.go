// Package clientip resolves the client address of a request behind
// proxies and CDNs.
package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Headers checked in order. The first public address wins.
var headers = []string{
	"CF-Connecting-IP",
	"Client-IP",
	"X-Forwarded-For",
	"X-Forwarded",
	"X-Cluster-Client-IP",
	"Forwarded-For",
	"Forwarded",
}

// GetIP returns the client IP for r. Proxy headers are honoured only when
// their first entry is a public address; otherwise the connection's remote
// address is used, and "127.0.0.1" when even that is missing.
func GetIP(r *http.Request) string {
	return FromHeaders(r.Header, r.RemoteAddr)
}

// FromHeaders is GetIP over a header map and a remote address.
func FromHeaders(h http.Header, remoteAddr string) string {
	for _, name := range headers {
		v := h.Get(name)
		if v == "" {
			continue
		}
		first, _, _ := strings.Cut(v, ",")
		if addr, ok := parse(first); ok && isPublic(addr) {
			return addr.String()
		}
	}

	if addr, ok := parse(remoteAddr); ok {
		return addr.String()
	}
	return "127.0.0.1"
}

func parse(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	// Forwarded: for=203.0.113.7
	if k, v, ok := strings.Cut(s, "="); ok && strings.EqualFold(strings.TrimSpace(k), "for") {
		s = strings.Trim(strings.TrimSpace(v), `"`)
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	s = strings.Trim(s, "[]")
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

func isPublic(a netip.Addr) bool {
	return a.IsValid() &&
		a.IsGlobalUnicast() &&
		!a.IsPrivate() &&
		!a.IsLoopback() &&
		!a.IsLinkLocalUnicast()
}
