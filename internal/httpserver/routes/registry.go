package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/jobscout/internal/httpserver/deps"
)

type (
	// Registrar mounts one group of routes.
	Registrar func(r chi.Router, d deps.Deps)
	// Middleware builds a route middleware once deps are known; most gates
	// need the secret, CIDR list or logger from deps.
	Middleware func(d deps.Deps) func(http.Handler) http.Handler
)

type registration struct {
	mount Registrar
	gates []Middleware
}

// Registrations run in init order, which is file name order within the
// package; static.go must stay last for its catch-all.
var registry []registration

// Register queues a registrar, wrapped in gates when RegisterAll runs.
func Register(mount Registrar, gates ...Middleware) {
	registry = append(registry, registration{mount: mount, gates: gates})
}

// RegisterAll mounts every queued registrar on r. Called once per router.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, reg := range registry {
		if len(reg.gates) == 0 {
			reg.mount(r, d)
			continue
		}
		mws := make([]func(http.Handler) http.Handler, 0, len(reg.gates))
		for _, gate := range reg.gates {
			mws = append(mws, gate(d))
		}
		reg.mount(r.With(mws...), d)
	}
}
