package handlers

import (
	"time"

	"github.com/anjiri1684/ridepool/middleware"
	"github.com/anjiri1684/ridepool/models"
	"github.com/anjiri1684/ridepool/services"
	"github.com/gofiber/fiber/v2"
)

type RegisterRequest struct {
	FullName string `json:"full_name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,min=7,max=20"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=passenger driver"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID            string    `json:"id"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Role          string    `json:"role"`
	IsStaff       bool      `json:"is_staff"`
	AverageRating float64   `json:"average_rating"`
	IsWarned      bool      `json:"is_warned"`
	IsRestricted  bool      `json:"is_restricted"`
	CreatedAt     time.Time `json:"created_at"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:            u.ID.String(),
		FullName:      u.FullName,
		Email:         u.Email,
		Phone:         u.Phone,
		Role:          string(u.Role),
		IsStaff:       u.IsStaff,
		AverageRating: u.AverageRating,
		IsWarned:      u.IsWarned,
		IsRestricted:  u.IsRestricted,
		CreatedAt:     u.CreatedAt,
	}
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	user, err := h.Accounts.Register(c.UserContext(), services.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registration successful",
		"user":    toUserResponse(user),
	})
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	token, user, err := h.Accounts.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"token": token, "user": toUserResponse(user)})
}

func (h *Handler) Me(c *fiber.Ctx) error {
	return c.JSON(toUserResponse(middleware.CurrentUser(c)))
}

func (h *Handler) GetTrust(c *fiber.Ctx) error {
	userID, err := paramUUID(c, "userId")
	if err != nil {
		return respondError(c, err)
	}
	tier, err := h.Trust.Inspect(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tier)
}
