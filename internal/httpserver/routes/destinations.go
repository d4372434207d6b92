package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/itour/internal/httpserver/deps"
	"github.com/MrSnakeDoc/itour/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerDestinations) }

func registerDestinations(r chi.Router, d deps.Deps) {
	r.Get("/destinations/stream", handlers.Stream(d))

	r.Group(func(r chi.Router) {
		r.Use(timeout(d))
		r.Get("/destinations", handlers.ListDestinations(d))
		r.Post("/destinations", handlers.CreateDestination(d))
		r.Get("/destinations/{id}", handlers.GetDestination(d))
		r.Patch("/destinations/{id}", handlers.UpdateDestination(d))
		r.Delete("/destinations/{id}", handlers.DeleteDestination(d))
	})
}
