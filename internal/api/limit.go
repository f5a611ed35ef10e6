package api

import (
	"net/http"
	"sync"

	"github.com/kashacker/satellite-tracker-orbitx/internal/httputil"
)

// inflightLimiter tracks concurrent requests per client IP and globally.
type inflightLimiter struct {
	mu       sync.Mutex
	inFlight map[string]int
	total    int
	maxPerIP int
	maxTotal int
}

func newInflightLimiter(maxPerIP, maxTotal int) *inflightLimiter {
	return &inflightLimiter{
		inFlight: make(map[string]int),
		maxPerIP: maxPerIP,
		maxTotal: maxTotal,
	}
}

// acquire registers a request for ip. It returns false when the IP or the
// global limit has been reached.
func (l *inflightLimiter) acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.maxTotal > 0 && l.total >= l.maxTotal {
		return false
	}
	if l.inFlight[ip] >= l.maxPerIP {
		return false
	}

	l.inFlight[ip]++
	l.total++
	return true
}

func (l *inflightLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.inFlight[ip]--
	l.total--
	if l.inFlight[ip] <= 0 {
		delete(l.inFlight, ip)
	}
}

// limitMiddleware answers 429 when a client already has maxPerIP requests
// in flight. Probe paths are never limited. maxPerIP <= 0 disables it.
func limitMiddleware(maxPerIP, maxTotal int, trustProxy bool) func(http.Handler) http.Handler {
	if maxPerIP <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := newInflightLimiter(maxPerIP, maxTotal)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if probePath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			ip := httputil.ClientIP(r, trustProxy)
			if !l.acquire(ip) {
				w.Header().Set("Retry-After", "1")
				httputil.WriteError(w, http.StatusTooManyRequests, "too many concurrent requests", "rate_limited")
				return
			}
			defer l.release(ip)
			next.ServeHTTP(w, r)
		})
	}
}
