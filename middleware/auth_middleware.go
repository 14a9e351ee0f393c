package middleware

import (
	"context"
	"log"

	"github.com/anjiri1684/ridepool/models"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const actorKey = "actor"

// ActorSource loads the account behind a token.
type ActorSource interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Entitler decides whether an account may search and book.
type Entitler interface {
	Entitled(ctx context.Context, user *models.User) (bool, error)
}

func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(secret),
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "Missing or malformed JWT", "code": "unauthorized"})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"error": "Invalid or expired JWT", "code": "unauthorized"})
}

// LoadActor resolves the token's user_id to the stored account so handlers
// see the current role, verification and trust flags rather than the ones
// baked into the token.
func LoadActor(users ActorSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals("user").(*jwt.Token)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized", "code": "unauthorized"})
		}
		claims := token.Claims.(jwt.MapClaims)
		raw, _ := claims["user_id"].(string)
		userID, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID in token", "code": "unauthorized"})
		}

		user, err := users.Get(c.UserContext(), userID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found", "code": "unauthorized"})
		}
		if !user.IsActive {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Account is disabled", "code": "forbidden"})
		}
		c.Locals(actorKey, user)
		return c.Next()
	}
}

// CurrentUser returns the actor loaded by LoadActor.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(actorKey).(*models.User)
	return user
}

func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user := CurrentUser(c); user == nil || !user.HasOverride() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: Admin access required",
				"code":  "forbidden",
			})
		}
		return c.Next()
	}
}

// DriverRequired also lets staff through; the ride service decides what the
// override allows.
func DriverRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || !(user.IsDriver() || user.HasOverride()) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: Driver access required",
				"code":  "forbidden",
			})
		}
		return c.Next()
	}
}

func PassengerRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user := CurrentUser(c); user == nil || user.Role != models.RolePassenger {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: Passenger access required",
				"code":  "forbidden",
			})
		}
		return c.Next()
	}
}

func EntitlementRequired(subs Entitler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized", "code": "unauthorized"})
		}
		ok, err := subs.Entitled(c.UserContext(), user)
		if err != nil {
			log.Printf("🔥 Entitlement check failed for %s: %v", user.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not check subscription", "code": "internal"})
		}
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Your subscription has expired. Please renew to continue.",
				"code":  "subscription_required",
			})
		}
		return c.Next()
	}
}
