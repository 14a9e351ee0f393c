package handlers

import (
	"github.com/anjiri1684/ridepool/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type OpenChatRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

func (h *Handler) OpenChatRoom(c *fiber.Ctx) error {
	var req OpenChatRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}
	bookingID, _ := uuid.Parse(req.BookingID)

	room, created, err := h.Chats.OpenRoom(c.UserContext(), middleware.CurrentUser(c), bookingID)
	if err != nil {
		return respondError(c, err)
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"chat_room": room, "created": created})
}

func (h *Handler) GetChatRooms(c *fiber.Ctx) error {
	rooms, err := h.Chats.Rooms(c.UserContext(), middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rooms)
}

func (h *Handler) GetChatMessages(c *fiber.Ctx) error {
	roomID, err := paramUUID(c, "roomId")
	if err != nil {
		return respondError(c, err)
	}
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	messages, err := h.Chats.Messages(c.UserContext(), middleware.CurrentUser(c), roomID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(messages)
}

func (h *Handler) SendChatMessage(c *fiber.Ctx) error {
	roomID, err := paramUUID(c, "roomId")
	if err != nil {
		return respondError(c, err)
	}
	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	msg, err := h.Chats.Send(c.UserContext(), middleware.CurrentUser(c), roomID, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *Handler) MarkChatRead(c *fiber.Ctx) error {
	roomID, err := paramUUID(c, "roomId")
	if err != nil {
		return respondError(c, err)
	}
	n, err := h.Chats.MarkRead(c.UserContext(), middleware.CurrentUser(c), roomID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Messages marked as read", "updated": n})
}
