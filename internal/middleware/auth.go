package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"media-author/internal/logging"
)

// AuthConfig holds configuration for the console auth middleware.
type AuthConfig struct {
	// Token is the shared secret for API access. Empty disables auth
	// (local single-operator setups bind to loopback instead).
	Token string
	// SkipPaths are served without a token (health probes, metrics).
	SkipPaths []string
}

// DefaultAuthConfig returns the default auth configuration.
func DefaultAuthConfig(token string) AuthConfig {
	return AuthConfig{
		Token:     token,
		SkipPaths: []string{"/health", "/livez", "/readyz", "/metrics", "/version"},
	}
}

// Auth returns a middleware that requires a bearer token on API routes.
// Comparison is constant-time.
func Auth(config AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.Token == "" {
				next.ServeHTTP(w, r)
				return
			}
			for _, path := range config.SkipPaths {
				if strings.HasPrefix(r.URL.Path, path) {
					next.ServeHTTP(w, r)
					return
				}
			}

			token := bearerToken(r)
			if subtle.ConstantTimeCompare([]byte(token), []byte(config.Token)) != 1 {
				logging.Warn("Rejected unauthenticated request to %s from %s", sanitizeLogField(r.URL.Path), getClientIP(r))
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}
