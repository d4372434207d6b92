package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/itour/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready   bool   `json:"ready"`
	Backend string `json:"backend"`
	Error   string `json:"error,omitempty"`
}

// Readyz reports ready once the durable backend answers a ping.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		s := d.Planner.Store()
		resp := readyzResponse{Ready: true, Backend: s.BackendName()}
		status := http.StatusOK
		if err := s.Ping(ctx); err != nil {
			resp.Ready = false
			resp.Error = err.Error()
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}
