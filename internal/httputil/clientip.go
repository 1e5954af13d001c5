package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller's address. With trustProxy set it prefers the
// first X-Forwarded-For entry, then X-Real-IP; otherwise, and as a fallback,
// it uses RemoteAddr without the port. IPv6 brackets are stripped.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.Trim(r.RemoteAddr, "[]")
	}
	return ip
}
