package handlers

import (
	"github.com/anjiri1684/ridepool/middleware"
	"github.com/gofiber/fiber/v2"
)

type VerifyDriverRequest struct {
	Approved bool   `json:"approved"`
	Notes    string `json:"notes" validate:"max=1000"`
}

func (h *Handler) GetPendingDrivers(c *fiber.Ctx) error {
	profiles, err := h.Drivers.PendingQueue(c.UserContext(), middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profiles)
}

func (h *Handler) VerifyDriver(c *fiber.Ctx) error {
	driverID, err := paramUUID(c, "userId")
	if err != nil {
		return respondError(c, err)
	}
	var req VerifyDriverRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	profile, err := h.Drivers.Verify(c.UserContext(), middleware.CurrentUser(c), driverID, req.Approved, req.Notes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Driver " + string(profile.VerificationStatus), "profile": profile})
}
