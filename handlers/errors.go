package handlers

import (
	"log"

	"github.com/anjiri1684/ridepool/apperrors"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var kindStatus = map[apperrors.Kind]int{
	apperrors.KindNotFound:             fiber.StatusNotFound,
	apperrors.KindUnauthorized:         fiber.StatusUnauthorized,
	apperrors.KindPaymentRequired:      fiber.StatusPaymentRequired,
	apperrors.KindForbidden:            fiber.StatusForbidden,
	apperrors.KindNotVerified:          fiber.StatusForbidden,
	apperrors.KindActorRestricted:      fiber.StatusForbidden,
	apperrors.KindSubscriptionRequired: fiber.StatusForbidden,
	apperrors.KindInvalidTransition:    fiber.StatusConflict,
	apperrors.KindInsufficientSeats:    fiber.StatusConflict,
	apperrors.KindRideNotBookable:      fiber.StatusConflict,
	apperrors.KindDuplicateRating:      fiber.StatusConflict,
	apperrors.KindConflict:             fiber.StatusConflict,
	apperrors.KindRideNotCompleted:     fiber.StatusBadRequest,
	apperrors.KindInvalidScore:         fiber.StatusBadRequest,
	apperrors.KindValidation:           fiber.StatusBadRequest,
}

// respondError writes err with the status its kind maps to. Anything that
// did not come from the core is logged and hidden behind a 500.
func respondError(c *fiber.Ctx, err error) error {
	kind := apperrors.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		log.Printf("🔥 %s %s failed: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong", "code": "internal"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error(), "code": string(kind)})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg, "code": string(apperrors.KindValidation)})
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperrors.Validation("invalid " + name)
	}
	return id, nil
}
