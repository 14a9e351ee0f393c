package routes

import (
	"github.com/anjiri1684/ridepool/handlers"
	"github.com/anjiri1684/ridepool/middleware"
	"github.com/gofiber/fiber/v2"
)

func BookingRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	booking := api.Group("/bookings", authed(h)...)
	booking.Post("", middleware.PassengerRequired(), middleware.EntitlementRequired(h.Subscriptions), h.CreateBooking)
	booking.Get("/me", h.GetMyBookings)
	booking.Get("/:bookingId/receipt", h.GetReceipt)
	booking.Post("/:bookingId/rate", h.RateBooking)
	booking.Post("/:bookingId/cancel", middleware.PassengerRequired(), h.CancelBooking)

	booking.Post("/:bookingId/accept", middleware.DriverRequired(), h.AcceptBooking)
	booking.Post("/:bookingId/reject", middleware.DriverRequired(), h.RejectBooking)
	booking.Post("/:bookingId/status", middleware.DriverRequired(), h.UpdateBookingStatus)
}
