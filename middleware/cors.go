// Package middleware provides HTTP middleware functions.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds CORS middleware configuration.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	MaxAge         int // Preflight cache duration in seconds
}

// CORS creates a middleware that handles CORS headers. The server only
// exposes GET endpoints, so the defaults are narrow.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = []string{"GET", "OPTIONS"}
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 86400
	}

	allowed := originMatcher(cfg.AllowedOrigins)
	methodsStr := strings.Join(cfg.AllowedMethods, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			w.Header().Add("Vary", "Origin")

			if origin != "" && !allowed(origin) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				// Same-origin and non-browser requests still work.
				next.ServeHTTP(w, r)
				return
			}

			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", methodsStr)
				w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CheckOrigin returns a function for WebSocket origin checking, sharing the
// same allow list as the CORS middleware.
func CheckOrigin(allowedOrigins []string) func(*http.Request) bool {
	allowed := originMatcher(allowedOrigins)
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// No origin header (same-origin or non-browser client).
		if origin == "" {
			return true
		}
		return allowed(origin)
	}
}

// originMatcher builds the shared origin allow check. An empty list or a
// single "*" entry allows any origin.
func originMatcher(allowedOrigins []string) func(string) bool {
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		return func(string) bool { return true }
	}
	set := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		set[o] = true
	}
	return func(origin string) bool {
		return set[origin]
	}
}
