package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/itour/internal/httpserver/deps"
	"github.com/MrSnakeDoc/itour/internal/logger"
	"github.com/MrSnakeDoc/itour/internal/planner"
)

// ListDestinations answers GET /api/destinations?sort=&search=.
func ListDestinations(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseQuery(r)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, d.Planner.List(q))
	}
}

// CreateDestination adds a destination with default fields, then applies the
// optional patch body.
func CreateDestination(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch planner.Patch
		if err := decodeJSON(r, &patch, true); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if err := patch.Validate(); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		dest, err := d.Planner.AddDestination(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if !patch.Empty() {
			if dest, err = d.Planner.UpdateDestination(r.Context(), dest.ID, patch); err != nil {
				writeError(w, d.Logger, err)
				return
			}
		}

		d.Logger.Info("destination created", logger.String("destination_id", dest.ID))
		w.Header().Set("Location", "/api/destinations/"+dest.ID)
		writeJSON(w, http.StatusCreated, dest)
	}
}

func GetDestination(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dest, err := d.Planner.Destination(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, dest)
	}
}

// UpdateDestination applies a JSON patch; absent fields are left alone.
func UpdateDestination(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch planner.Patch
		if err := decodeJSON(r, &patch, false); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		dest, err := d.Planner.UpdateDestination(r.Context(), chi.URLParam(r, "id"), patch)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, dest)
	}
}

func DeleteDestination(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Planner.DeleteDestination(r.Context(), id); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		d.Logger.Info("destination deleted", logger.String("destination_id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}
