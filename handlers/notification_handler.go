package handlers

import (
	"fmt"
	"log"

	"github.com/anjiri1684/ridepool/middleware"
	"github.com/anjiri1684/ridepool/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

func (h *Handler) GetNotifications(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	list, err := h.Notifications.ListNotifications(c.UserContext(), middleware.CurrentUser(c).ID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

func (h *Handler) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := paramUUID(c, "notificationId")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Notifications.MarkNotificationRead(c.UserContext(), middleware.CurrentUser(c).ID, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}

func (h *Handler) MarkAllNotificationsRead(c *fiber.Ctx) error {
	n, err := h.Notifications.MarkAllNotificationsRead(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "All notifications marked as read", "updated": n})
}

type wsAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// ServeWs expects {"type":"auth","token":"..."} as the first frame. After
// that the connection only receives pushes; anything the client sends is
// read and dropped so close frames are noticed.
func (h *Handler) ServeWs(c *websocketcontrib.Conn) {
	var auth wsAuthMessage
	if err := c.ReadJSON(&auth); err != nil || auth.Type != "auth" {
		log.Printf("WebSocket auth failed: invalid or missing auth message, error: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
		c.Close()
		return
	}

	userID, err := h.parseToken(auth.Token)
	if err != nil {
		log.Printf("WebSocket auth failed: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		c.Close()
		return
	}
	_ = c.WriteJSON(fiber.Map{"type": "auth_ok"})

	client := &websocket.Client{UserID: userID, Conn: c}
	if !h.Hub.Join(client) {
		c.Close()
		return
	}
	defer func() {
		h.Hub.Leave(client)
		c.Close()
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseNormalClosure, websocketcontrib.CloseAbnormalClosure) {
				log.Printf("WebSocket closed for client %s", userID)
			} else {
				log.Printf("WebSocket read error for client %s: %v", userID, err)
			}
			return
		}
	}
}

func (h *Handler) parseToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, fmt.Errorf("unexpected claims")
	}
	raw, _ := claims["user_id"].(string)
	return uuid.Parse(raw)
}
