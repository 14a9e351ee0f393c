package notifications

import (
	"context"
	"encoding/json"
	"log"

	"github.com/anjiri1684/ridepool/models"
	"github.com/anjiri1684/ridepool/websocket"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Push struct {
	Type         string              `json:"type"`
	Notification models.Notification `json:"notification"`
}

func newPush(n models.Notification) Push {
	return Push{Type: "notification", Notification: n}
}

// Sender is a live session registry, normally *websocket.Hub.
type Sender interface {
	Send(userID uuid.UUID, payload interface{}) bool
}

// HubPusher writes straight to sessions connected to this instance.
type HubPusher struct {
	Sessions Sender
}

func (p HubPusher) Name() string { return "websocket" }

func (p HubPusher) Push(ctx context.Context, n models.Notification) error {
	if !p.Sessions.Send(n.UserID, newPush(n)) {
		return ErrNoLiveSession
	}
	return nil
}

// RedisPusher publishes to a channel every instance's relay listens on, so a
// user connected anywhere gets the push.
type RedisPusher struct {
	Client  *redis.Client
	Channel string
}

func (p RedisPusher) Name() string { return "redis" }

func (p RedisPusher) Push(ctx context.Context, n models.Notification) error {
	payload, err := json.Marshal(newPush(n))
	if err != nil {
		return err
	}
	data, err := json.Marshal(websocket.Envelope{UserID: n.UserID, Payload: payload})
	if err != nil {
		return err
	}
	return p.Client.Publish(ctx, p.Channel, data).Err()
}

// Live pushes transient payloads such as chat messages without writing an
// inbox record. With a redis client it goes through the shared channel so the
// user's session on any instance gets it; otherwise only this instance's hub.
type Live struct {
	Sessions Sender
	Client   *redis.Client
	Channel  string
}

func (l Live) PushLive(ctx context.Context, userID uuid.UUID, payload interface{}) {
	if l.Client == nil {
		l.Sessions.Send(userID, payload)
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("🔥 Live push for %s not encodable: %v", userID, err)
		return
	}
	data, err := json.Marshal(websocket.Envelope{UserID: userID, Payload: raw})
	if err != nil {
		log.Printf("🔥 Live push for %s not encodable: %v", userID, err)
		return
	}
	if err := l.Client.Publish(ctx, l.Channel, data).Err(); err != nil {
		log.Printf("🔥 Live push to %s failed: %v", userID, err)
	}
}
