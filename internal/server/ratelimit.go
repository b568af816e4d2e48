package server

import (
	"net"
	"net/http"
	"strings"

	"github.com/docsense/gateway/internal/codec"
	"github.com/docsense/gateway/internal/domain"
	"github.com/docsense/gateway/internal/ratelimit"
)

// ClientKey extracts the limiter key for a request: the first address in
// X-Forwarded-For when present, otherwise the host part of RemoteAddr.
func ClientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, found := strings.Cut(xff, ","); found || first != "" {
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// AdmitMiddleware checks the global and route limiters before the handler
// runs. A rejected request is answered with the normalized 429 shape and a
// Retry-After hint; the handler never sees it.
func AdmitMiddleware(registry *ratelimit.Registry, route domain.Route) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			dec := registry.Admit(route, ClientKey(r))
			if !dec.Allowed {
				codec.WriteError(w, domain.ErrRateLimit("Too many requests", dec.RetryAfter))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
