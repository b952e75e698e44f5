package routes

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/jobscout/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
)

func init() { Register(registerStatic) }

// registerStatic serves the web app when its directory exists.
func registerStatic(r chi.Router, d deps.Deps) {
	if d.StaticDir == "" {
		return
	}
	info, err := os.Stat(d.StaticDir)
	if err != nil || !info.IsDir() {
		d.Logger.Debug("static directory not found, front end disabled", logger.String("dir", d.StaticDir))
		return
	}
	r.Handle("/*", http.FileServer(http.Dir(d.StaticDir)))
}
