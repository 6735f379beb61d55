// Package middleware provides HTTP middleware for the honeypot API.
package middleware

import (
	"log/slog"
	"net/http"
)

// APIKeyHeader is the inbound shared-secret header.
const APIKeyHeader = "x-api-key"

// APIKey returns middleware that rejects requests whose x-api-key header does
// not match the configured secret. Rejection happens before any session state
// is touched.
func APIKey(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(APIKeyHeader) != secret {
				slog.Warn("Rejected request with invalid API key", "path", r.URL.Path, "ip", r.RemoteAddr)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error": "Invalid API Key"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
