package observability

import (
	"net"
	"net/http"
	"strings"

	"evento-companion/internal/telemetry"
)

// RequestIDFromRequest prefers the id attached by the request id middleware.
func RequestIDFromRequest(r *http.Request) string {
	if id := telemetry.RequestID(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-Id")
}

// IPFromRequest returns the first X-Forwarded-For hop or the remote host.
func IPFromRequest(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
