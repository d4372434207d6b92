package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/itour/internal/httpserver/deps"
	"github.com/MrSnakeDoc/itour/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerPersist) }

func registerPersist(r chi.Router, d deps.Deps) {
	r.With(operators(d), timeout(d)).Post("/persist", handlers.Persist(d))
}
