package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/itour/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	Name       string `json:"name,omitempty"`
	Count      *int   `json:"count,omitempty"`
	Revision   uint64 `json:"revision,omitempty"`
	Dirty      *bool  `json:"dirty,omitempty"`
	LastCommit string `json:"last_commit,omitempty"`
	Locale     string `json:"locale,omitempty"`
	Error      string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports store and backend state for operators.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := d.Planner.Store()

		count := s.Count()
		dirty := s.Dirty()
		lastCommit := "never"
		if t := s.LastCommit(); !t.IsZero() {
			lastCommit = t.Format(time.RFC3339)
		}

		components := map[string]componentStatus{
			"store": {
				OK:         true,
				Count:      &count,
				Revision:   s.Revision(),
				Dirty:      &dirty,
				LastCommit: lastCommit,
				Locale:     s.Locale().String(),
			},
			"backend": checkBackend(r.Context(), d),
			"metrics": {OK: d.Metrics != nil},
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

// determineMode is "degraded" when the backend cannot be reached, since the
// next commit would be fatal.
func determineMode(components map[string]componentStatus) string {
	if backend, ok := components["backend"]; ok && !backend.OK {
		return "degraded"
	}
	if st, ok := components["store"]; ok && st.Dirty != nil && *st.Dirty {
		return "pending-commit"
	}
	return "ok"
}

func checkBackend(parent context.Context, d deps.Deps) componentStatus {
	s := d.Planner.Store()
	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := s.Ping(ctx); err != nil {
		return componentStatus{OK: false, Name: s.BackendName(), Error: err.Error()}
	}
	return componentStatus{OK: true, Name: s.BackendName()}
}
