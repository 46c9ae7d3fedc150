package middleware

import (
	"github.com/go-chi/cors"
)

// NewCORS builds the CORS policy for the API. The surface is read-mostly, so
// only GET and the refresh POST are allowed, and X-API-Key must be listed for
// the refresh preflight to pass.
func NewCORS(allowedOrigins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
