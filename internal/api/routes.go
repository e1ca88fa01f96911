package api

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, h *Handler) {
	app.Get("/health", h.Health)
	app.Get("/models", h.ListModels)
	app.Post("/ingest", h.IngestFile)
	app.Post("/ingest/text", h.IngestText)
	app.Post("/ask", h.Ask)
	app.Get("/docs", h.ListDocs)
	app.Delete("/docs/:id", h.DeleteDoc)
}
