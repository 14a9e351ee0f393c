package routes

import (
	"github.com/anjiri1684/ridepool/handlers"
	"github.com/anjiri1684/ridepool/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", authed(h, middleware.AdminRequired())...)
	admin.Get("/drivers/pending", h.GetPendingDrivers)
	admin.Post("/drivers/:userId/verify", h.VerifyDriver)
}
