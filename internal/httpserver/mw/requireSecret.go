package mw

import (
	"crypto/subtle"
	"net/http"

	"github.com/MrSnakeDoc/jobscout/internal/logger"
	"github.com/MrSnakeDoc/jobscout/internal/sink"
	"github.com/MrSnakeDoc/jobscout/internal/utils"
)

// RequireSecret rejects requests whose X-Shared-Secret header does not match secret.
// An empty secret rejects everything.
func RequireSecret(secret string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	want := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(sink.SecretHeader))
			if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
				log.Warn("🔒 unauthorized request",
					logger.String("ip", utils.ClientIP(r, trustProxy)),
					logger.String("path", r.URL.Path))
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
