package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/jobscout/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobscout/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/jobscout/internal/httpserver/mw"
)

func init() { Register(registerPost, requireSecret) }

func requireSecret(d deps.Deps) func(http.Handler) http.Handler {
	return mw.RequireSecret(d.SharedSecret, d.TrustProxy, d.Logger)
}

func registerPost(r chi.Router, d deps.Deps) {
	if d.Sink == nil {
		return
	}
	r.Post("/post", handlers.Post(d))
}
