package routes

import (
	"github.com/anjiri1684/ridepool/handlers"
	"github.com/anjiri1684/ridepool/middleware"
	"github.com/gofiber/fiber/v2"
)

func RideRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	rides := api.Group("/rides", authed(h)...)
	rides.Get("/search", middleware.EntitlementRequired(h.Subscriptions), h.SearchRides)
	rides.Post("", middleware.DriverRequired(), h.CreateRide)
	rides.Post("/:rideId/complete", middleware.DriverRequired(), h.CompleteRide)
	rides.Post("/:rideId/cancel", middleware.DriverRequired(), h.CancelRide)

	driver := api.Group("/driver", authed(h, middleware.DriverRequired())...)
	driver.Get("/rides", h.GetDriverRides)
	driver.Get("/bookings", h.GetDriverBookings)
	driver.Get("/profile", h.GetDriverProfile)
	driver.Put("/profile", h.SaveDriverProfile)
}
