package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

// APIKey returns middleware that enforces an X-API-Key header on the wrapped
// routes. The expected key comes from a resolver so callers can back it with
// encrypted storage; a resolver returning "" disables all access.
func APIKey(expected func() string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get("X-API-Key")
			if provided == "" {
				unauthorized(w, "Missing API key")
				return
			}
			want := expected()
			if want == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(want)) != 1 {
				unauthorized(w, "Invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	//nolint:errcheck // best-effort error body
	json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"details": details,
	})
}
