package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
	"github.com/MrSnakeDoc/jobscout/internal/store"
)

type jobsResponse struct {
	Jobs []domain.Job `json:"jobs"`
}

// ListJobs returns the newest jobs; ?limit defaults to 50 and is capped at 200.
func ListJobs(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := store.DefaultJobsLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}

		jobs, err := d.Store.ListJobs(r.Context(), limit)
		if err != nil {
			d.Logger.Error("failed to list jobs", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		if jobs == nil {
			jobs = []domain.Job{}
		}
		writeJSON(w, http.StatusOK, jobsResponse{Jobs: jobs})
	}
}

func DeleteJob(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}

		if err := d.Store.DeleteJob(r.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "not_found")
				return
			}
			d.Logger.Error("failed to delete job", logger.Int64("id", id), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{Status: "success"})
	}
}
