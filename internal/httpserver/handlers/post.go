package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
	"github.com/MrSnakeDoc/jobscout/internal/sink"
)

// Post receives one accepted item from a poller and stores it once.
func Post(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload sink.Payload
		if err := decodeJSON(w, r, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		item := payload.Item()
		status, err := d.Sink.Submit(r.Context(), item)
		if err != nil {
			if errors.Is(err, domain.ErrValidation) {
				writeError(w, http.StatusBadRequest, validationMessage(err))
				return
			}
			d.Logger.Error("failed to store job",
				logger.String("source", item.SourceName),
				logger.Error(err))
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}

		if status == domain.SubmitDuplicate {
			d.Logger.Debug("duplicate job, skipping", logger.String("content_hash", item.ContentHash))
		}
		writeJSON(w, http.StatusOK, statusResponse{Status: status.String()})
	}
}
