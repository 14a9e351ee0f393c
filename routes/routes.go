package routes

import (
	"github.com/anjiri1684/ridepool/handlers"
	"github.com/anjiri1684/ridepool/middleware"
	"github.com/gofiber/fiber/v2"
)

// Setup mounts every API route on app.
func Setup(app *fiber.App, h *handlers.Handler) {
	AuthRoutes(app, h)
	ProfileRoutes(app, h)
	RideRoutes(app, h)
	BookingRoutes(app, h)
	NotificationRoutes(app, h)
	AdminRoutes(app, h)
	ChatRoutes(app, h)
}

// authed verifies the bearer token and loads the caller's account.
func authed(h *handlers.Handler, extra ...fiber.Handler) []fiber.Handler {
	return append([]fiber.Handler{
		middleware.Protected(h.JWTSecret),
		middleware.LoadActor(h.Accounts),
	}, extra...)
}
