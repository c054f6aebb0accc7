package httpd

import (
	"net"
	"net/http"
	"strings"
)

// bearerToken extracts the token from the Authorization header. Both
// "Bearer <token>" and a bare token are accepted; the original clients
// send the bare form.
func bearerToken(r *http.Request) (string, bool) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return "", false
	}
	if rest, ok := strings.CutPrefix(raw, "Bearer "); ok {
		raw = strings.TrimSpace(rest)
	}
	return raw, raw != ""
}

func clientIP(r *http.Request) string {
	// First hop of X-Forwarded-For when a proxy set it, else the peer.
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
