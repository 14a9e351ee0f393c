package routes

import (
	"github.com/anjiri1684/ridepool/handlers"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func NotificationRoutes(app *fiber.App, h *handlers.Handler) {
	api := app.Group("/api/v1")

	notifications := api.Group("/notifications", authed(h)...)
	notifications.Get("", h.GetNotifications)
	notifications.Post("/read-all", h.MarkAllNotificationsRead)
	notifications.Post("/:notificationId/read", h.MarkNotificationRead)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws", websocket.New(h.ServeWs))
}
