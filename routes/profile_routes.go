package routes

import (
	"github.com/anjiri1684/ridepool/handlers"
	"github.com/gofiber/fiber/v2"
)

func ProfileRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	subscription := api.Group("/subscription", authed(h)...)
	subscription.Get("", h.GetSubscription)
	subscription.Post("/renew", h.RenewSubscription)
}
