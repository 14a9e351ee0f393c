package services

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Notifier delivers a user-facing message. Implementations must not block
// the caller on delivery and never report failures back.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message string, data map[string]string)
}

// EventEmitter publishes committed lifecycle transitions.
type EventEmitter interface {
	Emit(routingKey string, data interface{})
}

// LivePusher hands a transient payload to a user's live session, if they
// have one. Nothing is stored and nothing is reported back.
type LivePusher interface {
	PushLive(ctx context.Context, userID uuid.UUID, payload interface{})
}

type nopLive struct{}

func (nopLive) PushLive(context.Context, uuid.UUID, interface{}) {}

type nopEvents struct{}

func (nopEvents) Emit(string, interface{}) {}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, uuid.UUID, string, string, map[string]string) {}

// Deps is what every lifecycle service shares.
type Deps struct {
	Notifier Notifier
	Events   EventEmitter
	Live     LivePusher
	Now      func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	if d.Events == nil {
		d.Events = nopEvents{}
	}
	if d.Live == nil {
		d.Live = nopLive{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}
