package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/itour/internal/httpserver/deps"
)

// Metrics exposes the Prometheus registry; 404 when metrics are disabled.
func Metrics(d deps.Deps) http.Handler {
	if d.Metrics == nil {
		return http.NotFoundHandler()
	}
	return d.Metrics.Handler()
}
