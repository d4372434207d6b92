package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/itour/internal/httpserver/deps"
	"github.com/MrSnakeDoc/itour/internal/store"
)

// Persist commits pending changes on demand.
func Persist(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Planner.Persist(r.Context(), store.TriggerExplicit); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
