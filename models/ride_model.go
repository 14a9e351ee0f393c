package models

import (
	"time"

	"github.com/anjiri1684/ridepool/apperrors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RideStatus string

const (
	RideActive    RideStatus = "active"
	RideCompleted RideStatus = "completed"
	RideCancelled RideStatus = "cancelled"
)

type Ride struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DriverID      uuid.UUID `gorm:"type:uuid;not null;index" json:"driver_id"`
	StartLocation string    `gorm:"size:255;not null" json:"start_location"`
	Destination   string    `gorm:"size:255;not null" json:"destination"`
	DepartureTime time.Time `gorm:"not null;index" json:"departure_time"`
	PricePerSeat  Money     `gorm:"not null" json:"price_per_seat"`

	// TotalSeats is the capacity at creation; AvailableSeats only moves
	// through reservations and releases.
	TotalSeats     int        `gorm:"not null" json:"total_seats"`
	AvailableSeats int        `gorm:"not null" json:"available_seats"`
	Status         RideStatus `gorm:"size:20;not null;default:'active';index" json:"status"`

	Bookings []Booking `gorm:"foreignKey:RideID" json:"bookings,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Ride) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// CheckBookable explains why seats cannot be reserved on r at now, or returns
// nil when the reservation would fit.
func (r Ride) CheckBookable(seats int, now time.Time) error {
	if r.Status != RideActive || !r.DepartureTime.After(now) {
		return apperrors.ErrRideNotBookable
	}
	if seats > r.AvailableSeats {
		return apperrors.ErrInsufficientSeats
	}
	return nil
}

func (r Ride) Route() string {
	return r.StartLocation + " → " + r.Destination
}
