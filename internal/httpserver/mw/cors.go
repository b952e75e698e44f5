package mw

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/MrSnakeDoc/jobscout/internal/sink"
)

// CORS lets the web app call the API from the allowed origins.
// An empty list allows any origin.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", sink.SecretHeader, "X-Request-Id"},
		ExposedHeaders: []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:         300,
	})
}
