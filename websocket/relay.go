package websocket

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Envelope is what travels over the redis channel between instances.
type Envelope struct {
	UserID  uuid.UUID       `json:"user_id"`
	Payload json.RawMessage `json:"payload"`
}

// Relay fans pushes published on a redis channel out to the users connected
// to this instance's hub.
type Relay struct {
	rdb     *redis.Client
	channel string
	hub     *Hub
}

func NewRelay(rdb *redis.Client, channel string, hub *Hub) *Relay {
	return &Relay{rdb: rdb, channel: channel, hub: hub}
}

func (r *Relay) Run(ctx context.Context) {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()
	ch := sub.Channel()
	log.Printf("✅ Listening for pushes on redis channel %s", r.channel)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.handle(msg.Payload)
		}
	}
}

func (r *Relay) handle(raw string) {
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		log.Printf("⚠️ Dropping malformed push envelope: %v", err)
		return
	}
	r.hub.Send(env.UserID, env.Payload)
}
