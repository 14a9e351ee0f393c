package routes

import (
	"github.com/anjiri1684/ridepool/handlers"
	"github.com/gofiber/fiber/v2"
)

func ChatRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	chats := api.Group("/chats", authed(h)...)
	chats.Post("", h.OpenChatRoom)
	chats.Get("", h.GetChatRooms)
	chats.Get("/:roomId/messages", h.GetChatMessages)
	chats.Post("/:roomId/messages", h.SendChatMessage)
	chats.Post("/:roomId/read", h.MarkChatRead)
}
