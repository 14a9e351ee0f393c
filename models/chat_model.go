package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatRoom is the private thread between a booking's passenger and the
// ride's driver. There is at most one per booking.
type ChatRoom struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BookingID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"booking_id"`
	DriverID    uuid.UUID `gorm:"type:uuid;not null;index" json:"driver_id"`
	PassengerID uuid.UUID `gorm:"type:uuid;not null;index" json:"passenger_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Booking     *Booking `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	LastMessage *Message `gorm:"-" json:"last_message,omitempty"`
	UnreadCount int64    `gorm:"-" json:"unread_count"`
}

func (r *ChatRoom) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r ChatRoom) HasMember(userID uuid.UUID) bool {
	return userID == r.DriverID || userID == r.PassengerID
}

// Counterparty is the other member of the room.
func (r ChatRoom) Counterparty(userID uuid.UUID) uuid.UUID {
	if userID == r.DriverID {
		return r.PassengerID
	}
	return r.DriverID
}

type Message struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ChatRoomID uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_room_created,priority:1" json:"chat_room_id"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	IsRead     bool      `gorm:"default:false" json:"is_read"`
	CreatedAt  time.Time `gorm:"index:idx_messages_room_created,priority:2" json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
