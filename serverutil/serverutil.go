// Package serverutil contains request-scoped helpers shared by the server
// and its handlers.
package serverutil

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type addressKey struct{}

// WithAddress adds the server's external address to the context.
func WithAddress(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, addressKey{}, address)
}

// AddressFromContext returns the server's external address. This is what
// links should reference, and likely points at a CDN or load balancer.
// Returns an empty string when no address has been injected.
func AddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(addressKey{}).(string); ok {
		return v
	}
	return ""
}

// ClientIP extracts the originating client address for a request. Honors
// X-Forwarded-For when a proxy or load balancer sits in front of the
// service, falling back to the connection's remote address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First hop is the original client.
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
