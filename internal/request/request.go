package request

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the address used to key per-client limits. Proxy headers
// win over the socket address, and the port is dropped so reconnecting
// clients share a bucket.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// WantsExtended reports whether the caller asked for the verbose variant of a report
func WantsExtended(r *http.Request) bool {
	mode := strings.ToLower(r.URL.Query().Get("mode"))
	return mode == "extended" || mode == "full"
}
