package middleware

import (
	"log/slog"
	"net/http"

	"github.com/rs/cors"
)

// CORS allows credentialed requests from the listed origins. Wildcards are
// dropped because browsers refuse them alongside cookies.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make([]string, 0, len(origins))
	for _, origin := range origins {
		if origin == "*" {
			slog.Warn("ignoring wildcard CORS origin; cookies require explicit origins")
			continue
		}
		allowed = append(allowed, origin)
	}

	handler := cors.New(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		MaxAge:           3600,
		AllowCredentials: true,
	})

	return handler.Handler
}
