package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/akinalp/votespace/pkg"
)

// APIKeyHeader, client'ların public API key'i gönderdiği header.
const APIKeyHeader = "apikey"

// RequireAPIKey, her istekte public API key'i kontrol eder.
//
// Tarayıcılar WebSocket handshake'inde header gönderemediği için key
// "apikey" query parametresinden de kabul edilir. /api/health muaf.
// key boşsa (setup mode) kontrol yapılmaz; o durumda SetupGate devrededir.
func RequireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}

		expected := []byte(key)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/health" {
				next.ServeHTTP(w, r)
				return
			}

			got := r.Header.Get(APIKeyHeader)
			if got == "" {
				got = r.URL.Query().Get(APIKeyHeader)
			}

			if got == "" {
				pkg.ErrorWithMessage(w, http.StatusUnauthorized, "API key required")
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
				pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
