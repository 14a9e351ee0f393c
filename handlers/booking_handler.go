package handlers

import (
	"github.com/anjiri1684/ridepool/middleware"
	"github.com/anjiri1684/ridepool/models"
	"github.com/anjiri1684/ridepool/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	RideID           string `json:"ride_id" validate:"required,uuid"`
	SeatsBooked      int    `json:"seats_booked" validate:"required,min=1"`
	PaymentConfirmed bool   `json:"payment_confirmed"`
}

type BookingStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type RatingRequest struct {
	Score   int    `json:"score"`
	Comment string `json:"comment" validate:"max=2000"`
}

func (h *Handler) CreateBooking(c *fiber.Ctx) error {
	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}
	rideID, _ := uuid.Parse(req.RideID)

	booking, err := h.Bookings.Create(c.UserContext(), middleware.CurrentUser(c), services.CreateBookingInput{
		RideID:           rideID,
		Seats:            req.SeatsBooked,
		PaymentConfirmed: req.PaymentConfirmed,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Booking created",
		"booking": booking,
	})
}

func (h *Handler) GetMyBookings(c *fiber.Ctx) error {
	bookings, err := h.Bookings.ListForPassenger(c.UserContext(), middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(bookings)
}

func (h *Handler) GetDriverBookings(c *fiber.Ctx) error {
	bookings, err := h.Bookings.ListForDriver(c.UserContext(), middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(bookings)
}

type bookingAction func(c *fiber.Ctx, actor *models.User, bookingID uuid.UUID) (*models.Booking, error)

func (h *Handler) bookingTransition(message string, act bookingAction) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bookingID, err := paramUUID(c, "bookingId")
		if err != nil {
			return respondError(c, err)
		}
		booking, err := act(c, middleware.CurrentUser(c), bookingID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": message, "booking": booking})
	}
}

func (h *Handler) AcceptBooking(c *fiber.Ctx) error {
	return h.bookingTransition("Booking accepted", func(c *fiber.Ctx, actor *models.User, id uuid.UUID) (*models.Booking, error) {
		return h.Bookings.Accept(c.UserContext(), actor, id)
	})(c)
}

func (h *Handler) RejectBooking(c *fiber.Ctx) error {
	return h.bookingTransition("Booking rejected", func(c *fiber.Ctx, actor *models.User, id uuid.UUID) (*models.Booking, error) {
		return h.Bookings.Reject(c.UserContext(), actor, id)
	})(c)
}

func (h *Handler) CancelBooking(c *fiber.Ctx) error {
	return h.bookingTransition("Booking cancelled", func(c *fiber.Ctx, actor *models.User, id uuid.UUID) (*models.Booking, error) {
		return h.Bookings.Cancel(c.UserContext(), actor, id)
	})(c)
}

func (h *Handler) UpdateBookingStatus(c *fiber.Ctx) error {
	var req BookingStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}
	return h.bookingTransition("Booking "+req.Status, func(c *fiber.Ctx, actor *models.User, id uuid.UUID) (*models.Booking, error) {
		return h.Bookings.UpdateStatus(c.UserContext(), actor, id, models.BookingStatus(req.Status))
	})(c)
}

func (h *Handler) GetReceipt(c *fiber.Ctx) error {
	bookingID, err := paramUUID(c, "bookingId")
	if err != nil {
		return respondError(c, err)
	}
	receipt, err := h.Bookings.Receipt(c.UserContext(), middleware.CurrentUser(c), bookingID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(receipt)
}

func (h *Handler) GetMyRatings(c *fiber.Ctx) error {
	summary, err := h.Ratings.Received(c.UserContext(), middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

func (h *Handler) RateBooking(c *fiber.Ctx) error {
	bookingID, err := paramUUID(c, "bookingId")
	if err != nil {
		return respondError(c, err)
	}
	var req RatingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	rating, err := h.Ratings.Rate(c.UserContext(), middleware.CurrentUser(c), bookingID, req.Score, req.Comment)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Rating submitted", "rating": rating})
}
