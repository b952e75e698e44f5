package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
	"github.com/MrSnakeDoc/jobscout/internal/store"
)

type sourcesResponse struct {
	Sources []domain.Source `json:"sources"`
}

// sourceRequest accepts the legacy group_* names used by the first front end.
type sourceRequest struct {
	SourceID  string `json:"source_id"`
	Name      string `json:"name"`
	Provider  string `json:"provider"`
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
}

func (req sourceRequest) input() domain.SourceInput {
	in := domain.SourceInput{SourceID: req.SourceID, Name: req.Name, Provider: req.Provider}
	if in.SourceID == "" {
		in.SourceID = req.GroupID
	}
	if in.Name == "" {
		in.Name = req.GroupName
	}
	return in
}

type sourceResponse struct {
	Status string        `json:"status"`
	Source domain.Source `json:"source"`
}

type toggleResponse struct {
	Status  string `json:"status"`
	Enabled bool   `json:"enabled"`
}

func ListSources(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := d.Store.ListSources(r.Context())
		if err != nil {
			d.Logger.Error("failed to list sources", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		if sources == nil {
			sources = []domain.Source{}
		}
		writeJSON(w, http.StatusOK, sourcesResponse{Sources: sources})
	}
}

// AddSource creates a source or refreshes the name of an existing one.
func AddSource(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sourceRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		src, err := d.Store.UpsertSource(r.Context(), req.input())
		if err != nil {
			if errors.Is(err, domain.ErrValidation) {
				writeError(w, http.StatusBadRequest, validationMessage(err))
				return
			}
			d.Logger.Error("failed to add source", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}

		d.Logger.Info("source saved",
			logger.String("source_id", src.SourceID),
			logger.String("provider", src.Provider))
		writeJSON(w, http.StatusOK, sourceResponse{Status: "success", Source: src})
	}
}

func DeleteSource(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}

		if err := d.Store.DeleteSource(r.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "not_found")
				return
			}
			d.Logger.Error("failed to delete source", logger.Int64("id", id), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{Status: "success"})
	}
}

func ToggleSource(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}

		enabled, err := d.Store.ToggleSource(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "not_found")
				return
			}
			d.Logger.Error("failed to toggle source", logger.Int64("id", id), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		writeJSON(w, http.StatusOK, toggleResponse{Status: "success", Enabled: enabled})
	}
}
