// Package httputil holds small helpers shared by the HTTP handlers.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller's address for request logs. With trustProxy,
// the leftmost X-Forwarded-For entry and then X-Real-IP win over RemoteAddr;
// header values that are not IP addresses are ignored. Enable trustProxy only
// behind a reverse proxy that sets those headers.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
				return ip
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
