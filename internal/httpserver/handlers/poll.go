package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/jobscout/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
)

// Poll asks the scheduler for an immediate cycle.
func Poll(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.PollTrigger == nil {
			writeError(w, http.StatusServiceUnavailable, "scheduler disabled")
			return
		}

		select {
		case d.PollTrigger <- struct{}{}:
			d.Logger.Info("manual poll triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, statusResponse{Status: "triggered"})
		default:
			d.Logger.Warn("poll already pending",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusTooManyRequests, statusResponse{Status: "pending"})
		}
	}
}
