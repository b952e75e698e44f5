package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/jobscout/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobscout/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/jobscout/internal/httpserver/mw"
)

func init() { Register(registerAPI) }

func registerAPI(r chi.Router, d deps.Deps) {
	r.Route("/api", func(api chi.Router) {
		api.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
		api.Use(mw.RateLimit(mw.RateLimitConfig{
			PerSecond:  d.RateLimit,
			Burst:      d.RateBurst,
			MaxEntries: 10000,
			TrustProxy: d.TrustProxy,
			Now:        d.TimeNow,
		}))

		api.Get("/sources", handlers.ListSources(d))
		api.Post("/sources", handlers.AddSource(d))
		api.Delete("/sources/{id}", handlers.DeleteSource(d))
		api.Post("/sources/{id}/toggle", handlers.ToggleSource(d))

		api.Get("/jobs", handlers.ListJobs(d))
		api.Delete("/jobs/{id}", handlers.DeleteJob(d))

		api.Post("/poll", handlers.Poll(d))
		api.Get("/status", handlers.Status(d))
	})
}
