package api

import "github.com/gofiber/fiber/v2"

// RegisterRoutes mounts the public health probe and the authenticated
// JSON API.
func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/health", handler.Health)
	registerAPIRoutes(app, handler)
}

func registerAPIRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api", handler.AuthRequired)

	api.Get("/report", handler.GetReport)
	api.Get("/patterns", handler.GetPatterns)
	api.Get("/risk/:condition", handler.GetConditionRisk)

	entries := api.Group("/entries")
	entries.Post("/:date", handler.UpsertEntry)
	entries.Delete("/:date", handler.DeleteEntry)

	api.Post("/wearables/:date", handler.UpsertWearable)
	api.Post("/periods", handler.StartPeriod)

	export := api.Group("/export")
	export.Get("/csv", handler.ExportCSV)
	export.Get("/summary", handler.ExportSummary)
}
