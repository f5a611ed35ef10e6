// Package auth implements optional bearer-token protection for the API.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/kashacker/satellite-tracker-orbitx/internal/httputil"
)

// Config holds authentication configuration.
type Config struct {
	Enabled bool
	Token   string
	// PublicPaths are served without a token in addition to the probe paths.
	PublicPaths []string
}

// probePaths are always public regardless of auth configuration.
var probePaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

func (c Config) isPublic(r *http.Request) bool {
	// CORS preflights never carry credentials.
	if r.Method == http.MethodOptions || probePaths[r.URL.Path] {
		return true
	}
	for _, p := range c.PublicPaths {
		if r.URL.Path == p {
			return true
		}
	}
	return false
}

// Middleware enforces "Authorization: Bearer <token>" on non-public requests
// when auth is enabled.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	want := []byte(cfg.Token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || cfg.isPublic(r) {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" || subtle.ConstantTimeCompare([]byte(token), want) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="orbitx"`)
				httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
