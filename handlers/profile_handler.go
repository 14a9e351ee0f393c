package handlers

import (
	"github.com/anjiri1684/ridepool/middleware"
	"github.com/anjiri1684/ridepool/services"
	"github.com/gofiber/fiber/v2"
)

type RenewRequest struct {
	PaymentConfirmed bool `json:"payment_confirmed"`
}

type DriverProfileRequest struct {
	NationalID    string `json:"national_id" validate:"required,max=20"`
	DriverLicense string `json:"driver_license" validate:"required,max=50"`
	CarModel      string `json:"car_model" validate:"required,max=100"`
	PlateNumber   string `json:"plate_number" validate:"required,max=20"`
	Seats         int    `json:"seats" validate:"omitempty,min=1,max=60"`
}

func (h *Handler) GetSubscription(c *fiber.Ctx) error {
	status, err := h.Subscriptions.Status(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}

func (h *Handler) RenewSubscription(c *fiber.Ctx) error {
	var req RenewRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}
	status, err := h.Subscriptions.Renew(c.UserContext(), middleware.CurrentUser(c), req.PaymentConfirmed)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Subscription renewed", "subscription": status})
}

func (h *Handler) SaveDriverProfile(c *fiber.Ctx) error {
	var req DriverProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	profile, err := h.Drivers.SaveProfile(c.UserContext(), middleware.CurrentUser(c), services.DriverProfileInput{
		NationalID:    req.NationalID,
		DriverLicense: req.DriverLicense,
		CarModel:      req.CarModel,
		PlateNumber:   req.PlateNumber,
		Seats:         req.Seats,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Documents submitted. Waiting for admin verification.",
		"profile": profile,
	})
}

func (h *Handler) GetDriverProfile(c *fiber.Ctx) error {
	profile, err := h.Drivers.Profile(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}
