package home

import (
	"github.com/go-chi/chi/v5"
)

// SetupRoutes configures routes for the home feature.
func SetupRoutes(router chi.Router, cfg Config) error {
	handlers := NewHandlers(cfg)

	router.Get("/", handlers.HomePage)
	router.Get("/updates", handlers.HomePageUpdates)

	router.Post("/upload", handlers.Upload)
	router.Post("/controls", handlers.Controls)
	router.Post("/reset", handlers.Reset)

	router.Get("/figure.json", handlers.FigureJSON)
	router.Get("/export.{format}", handlers.Export)

	return nil
}
