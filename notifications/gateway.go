package notifications

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/anjiri1684/ridepool/models"
	"github.com/anjiri1684/ridepool/repositories"
	"github.com/google/uuid"
)

// ErrNoLiveSession means the user had nowhere to receive a push right now.
var ErrNoLiveSession = errors.New("no live session")

// Pusher delivers an already persisted notification over one channel.
type Pusher interface {
	Name() string
	Push(ctx context.Context, n models.Notification) error
}

// Gateway persists every notification as the user's inbox record and then
// hands it to each pusher. Delivery runs off the caller's goroutine and its
// failures are only logged.
type Gateway struct {
	store   repositories.NotificationStore
	pushers []Pusher
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewGateway(store repositories.NotificationStore, pushers ...Pusher) *Gateway {
	return &Gateway{store: store, pushers: pushers, timeout: 10 * time.Second}
}

func (g *Gateway) Notify(ctx context.Context, userID uuid.UUID, title, message string, data map[string]string) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("🔥 Notification delivery panicked for %s: %v", userID, r)
			}
		}()

		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		defer cancel()
		if err := g.Deliver(dctx, userID, title, message, data); err != nil {
			log.Printf("🔥 Failed to save notification %q for %s: %v", title, userID, err)
		}
	}()
}

// Deliver is the synchronous path. Only a failure to persist is returned;
// push failures are logged.
func (g *Gateway) Deliver(ctx context.Context, userID uuid.UUID, title, message string, data map[string]string) error {
	n := models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Data:    data,
	}
	if err := g.store.CreateNotification(ctx, &n); err != nil {
		return err
	}

	for _, p := range g.pushers {
		if err := p.Push(ctx, n); err != nil {
			if errors.Is(err, ErrNoLiveSession) {
				log.Printf("⚠️ No %s session for %s, notification saved to DB only", p.Name(), userID)
				continue
			}
			log.Printf("🔥 %s push failed for %s: %v", p.Name(), userID, err)
			continue
		}
		log.Printf("✅ %s push sent to %s: %s", p.Name(), userID, title)
	}
	return nil
}

// Wait blocks until every in-flight delivery has finished.
func (g *Gateway) Wait() {
	g.wg.Wait()
}
