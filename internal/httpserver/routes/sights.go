package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/itour/internal/httpserver/deps"
	"github.com/MrSnakeDoc/itour/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerSights) }

func registerSights(r chi.Router, d deps.Deps) {
	r = r.With(timeout(d))
	r.Post("/destinations/{id}/sights", handlers.AddSight(d))
	r.Delete("/destinations/{id}/sights/{sightID}", handlers.RemoveSight(d))
	r.Get("/sights/{id}", handlers.GetSight(d))
}
