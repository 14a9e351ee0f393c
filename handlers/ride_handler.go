package handlers

import (
	"time"

	"github.com/anjiri1684/ridepool/middleware"
	"github.com/anjiri1684/ridepool/models"
	"github.com/anjiri1684/ridepool/services"
	"github.com/gofiber/fiber/v2"
)

type CreateRideRequest struct {
	StartLocation  string       `json:"start_location" validate:"required,max=255"`
	Destination    string       `json:"destination" validate:"required,max=255"`
	DepartureTime  time.Time    `json:"departure_time" validate:"required"`
	PricePerSeat   models.Money `json:"price_per_seat" validate:"gt=0,lte=100000000000"`
	AvailableSeats int          `json:"available_seats" validate:"required,min=1,max=60"`
}

func (h *Handler) CreateRide(c *fiber.Ctx) error {
	var req CreateRideRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	ride, err := h.Rides.Create(c.UserContext(), middleware.CurrentUser(c), services.CreateRideInput{
		StartLocation: req.StartLocation,
		Destination:   req.Destination,
		DepartureTime: req.DepartureTime,
		PricePerSeat:  req.PricePerSeat,
		Seats:         req.AvailableSeats,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ride)
}

func (h *Handler) SearchRides(c *fiber.Ctx) error {
	rides, err := h.Rides.Search(c.UserContext(), c.Query("start_location"), c.Query("destination"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rides)
}

func (h *Handler) CompleteRide(c *fiber.Ctx) error {
	rideID, err := paramUUID(c, "rideId")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.Rides.Complete(c.UserContext(), middleware.CurrentUser(c), rideID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":            "Ride completed successfully",
		"ride":               out.Ride,
		"completed_bookings": len(out.Completed),
		"failed_bookings":    out.Failed,
	})
}

func (h *Handler) CancelRide(c *fiber.Ctx) error {
	rideID, err := paramUUID(c, "rideId")
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.Rides.Cancel(c.UserContext(), middleware.CurrentUser(c), rideID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":            "Ride cancelled",
		"ride":               out.Ride,
		"cancelled_bookings": len(out.Cancelled),
		"failed_bookings":    out.Failed,
	})
}

func (h *Handler) GetDriverRides(c *fiber.Ctx) error {
	rides, err := h.Rides.ListForDriver(c.UserContext(), middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rides)
}
