package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/JonMunkholm/wrangle/internal/config"
	"github.com/JonMunkholm/wrangle/internal/logging"
)

// APIKeyAuth returns middleware that validates the X-API-Key header (or an
// Authorization bearer token) against configured keys.
// If RequireAPIKey is false, all requests pass through.
func APIKeyAuth(cfg config.SecurityConfig) func(http.Handler) http.Handler {
	keys := make([][]byte, len(cfg.APIKeys))
	for i, k := range cfg.APIKeys {
		keys[i] = []byte(k)
	}

	return func(next http.Handler) http.Handler {
		if !cfg.RequireAPIKey {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := requestKey(r)
			log := logging.FromContext(r.Context()).With("path", r.URL.Path, "method", r.Method, "remote_addr", r.RemoteAddr)

			if key == "" {
				log.Warn("auth: missing API key")
				writeError(w, r, http.StatusUnauthorized, "AUTH001", "missing API key", "Send the key in the X-API-Key header")
				return
			}
			if !isValidAPIKey([]byte(key), keys) {
				log.Warn("auth: invalid API key")
				writeError(w, r, http.StatusForbidden, "AUTH002", "invalid API key", "Check the configured API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestKey(r *http.Request) string {
	if k := r.Header.Get("X-API-Key"); k != "" {
		return k
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// isValidAPIKey compares key against every configured key in constant time,
// so timing does not reveal which key (if any) matched.
func isValidAPIKey(key []byte, validKeys [][]byte) bool {
	valid := 0
	for _, k := range validKeys {
		valid |= subtle.ConstantTimeCompare(key, k)
	}
	return valid == 1
}
