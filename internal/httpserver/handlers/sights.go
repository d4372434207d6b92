package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/itour/internal/domain"
	"github.com/MrSnakeDoc/itour/internal/httpserver/deps"
)

type addSightRequest struct {
	Name string `json:"name"`
}

type sightResponse struct {
	domain.Sight
	DestinationID string `json:"destination_id,omitempty"`
}

// AddSight appends a sight. A blank name is accepted and ignored (204).
func AddSight(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addSightRequest
		if err := decodeJSON(r, &req, false); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		id := chi.URLParam(r, "id")
		sight, added, err := d.Planner.AddSight(r.Context(), id, req.Name)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if !added {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusCreated, sightResponse{Sight: sight, DestinationID: id})
	}
}

// RemoveSight answers 204 whether or not the sight was present.
func RemoveSight(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, err := d.Planner.RemoveSight(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "sightID"))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func GetSight(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sight, owner, err := d.Planner.Sight(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, sightResponse{Sight: sight, DestinationID: owner})
	}
}
