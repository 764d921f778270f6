package middleware

import (
	"slices"

	"github.com/go-chi/cors"
)

// NewCORS creates the CORS middleware for the frontend origins. A "*" entry
// allows any origin, in which case cookies and auth headers are not
// credentialed.
func NewCORS(allowedOrigins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		// The request id lets the frontend quote a failing call in bug reports.
		ExposedHeaders:   []string{"Content-Type", "X-Request-Id"},
		AllowCredentials: !slices.Contains(allowedOrigins, "*"),
		MaxAge:           300,
	})
}
