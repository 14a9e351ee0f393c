package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingRejected  BookingStatus = "rejected"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingRejected, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
}

// HoldsSeats reports whether a booking in status s still owns its seats on the ride.
func (s BookingStatus) HoldsSeats() bool {
	return s == BookingPending || s == BookingConfirmed
}

// ReleasesSeats reports whether entering s hands the seats back to the ride.
func (s BookingStatus) ReleasesSeats() bool {
	return s == BookingRejected || s == BookingCancelled
}

func (s BookingStatus) IsTerminal() bool {
	_, ok := bookingTransitions[s]
	return !ok
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingRejected, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SourcesFor lists every status that may move to to.
func SourcesFor(to BookingStatus) []BookingStatus {
	var out []BookingStatus
	for _, from := range []BookingStatus{BookingPending, BookingConfirmed} {
		if CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}

type Booking struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	RideID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"ride_id"`
	PassengerID   uuid.UUID     `gorm:"type:uuid;not null;index" json:"passenger_id"`
	SeatsBooked   int           `gorm:"not null" json:"seats_booked"`
	TotalPrice    Money         `gorm:"not null" json:"total_price"`
	Status        BookingStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"size:20;not null;default:'pending'" json:"payment_status"`

	ReminderSentAt *time.Time `json:"-"`

	Ride *Ride `gorm:"foreignKey:RideID" json:"ride,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
