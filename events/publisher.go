package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	RideCreated   = "ride.created"
	RideCompleted = "ride.completed"
	RideCancelled = "ride.cancelled"

	BookingCreated = "booking.created"
	RatingCreated  = "rating.created"
)

// BookingStatusKey is the routing key for a booking entering status.
func BookingStatusKey(status string) string {
	return "booking." + status
}

// Event is the body of every message on the exchange.
type Event struct {
	Name       string      `json:"event"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// Publisher sends lifecycle events to a topic exchange. Publishing happens
// after the transition has committed and never fails the caller.
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	confirms chan amqp.Confirmation

	pubMu sync.Mutex
	wg    sync.WaitGroup
}

func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}
	p := &Publisher{
		conn:     conn,
		ch:       ch,
		exchange: exchange,
		confirms: ch.NotifyPublish(make(chan amqp.Confirmation, 1)),
	}
	log.Printf("✅ Publishing lifecycle events to exchange %s", exchange)
	return p, nil
}

func (p *Publisher) Emit(routingKey string, data interface{}) {
	body, err := json.Marshal(Event{Name: routingKey, OccurredAt: time.Now().UTC(), Data: data})
	if err != nil {
		log.Printf("🔥 Failed to encode event %s: %v", routingKey, err)
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.publish(routingKey, body); err != nil {
			log.Printf("⚠️ Failed to publish event %s: %v", routingKey, err)
		}
	}()
}

func (p *Publisher) publish(routingKey string, body []byte) error {
	if p.conn.IsClosed() || p.ch.IsClosed() {
		return errors.New("rabbitmq: channel is not open")
	}

	p.pubMu.Lock()
	defer p.pubMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return err
	}

	select {
	case c := <-p.confirms:
		if !c.Ack {
			return errors.New("rabbitmq: publish not acknowledged")
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close waits for in-flight publishes and closes the connection.
func (p *Publisher) Close() error {
	p.wg.Wait()
	return p.conn.Close()
}

// Nop discards every event.
type Nop struct{}

func (Nop) Emit(string, interface{}) {}
