package routes

import (
	"github.com/anjiri1684/ridepool/handlers"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)

	api.Get("/me", append(authed(h), h.Me)...)
	api.Get("/ratings/me", append(authed(h), h.GetMyRatings)...)

	users := api.Group("/users", authed(h)...)
	users.Get("/:userId/trust", h.GetTrust)
}
