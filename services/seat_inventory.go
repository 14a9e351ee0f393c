package services

import (
	"context"
	"time"

	"github.com/anjiri1684/ridepool/models"
	"github.com/anjiri1684/ridepool/repositories"
	"github.com/google/uuid"
)

// SeatInventory owns a ride's seat counter. Seats only leave a ride together
// with a new booking row and only come back with the booking's move out of a
// seat-holding status.
type SeatInventory struct {
	store repositories.BookingStore
	now   func() time.Time
}

func NewSeatInventory(store repositories.BookingStore, now func() time.Time) *SeatInventory {
	if now == nil {
		now = time.Now
	}
	return &SeatInventory{store: store, now: now}
}

// Reserve takes seats from the ride and creates the pending booking holding
// them in one reservation window.
func (s *SeatInventory) Reserve(ctx context.Context, rideID, passengerID uuid.UUID, seats int, payment models.PaymentStatus) (*models.Booking, error) {
	return s.store.ReserveSeats(ctx, repositories.Reservation{
		RideID:        rideID,
		PassengerID:   passengerID,
		Seats:         seats,
		PaymentStatus: payment,
		Now:           s.now(),
	})
}

// Release moves booking from the status it was read in to to and returns its
// seats to the ride. A booking that has moved on since it was read fails with
// InvalidTransition, so seats come back at most once.
func (s *SeatInventory) Release(ctx context.Context, booking models.Booking, to models.BookingStatus) (*models.Booking, error) {
	t := repositories.BookingTransition{
		BookingID:    booking.ID,
		From:         []models.BookingStatus{booking.Status},
		To:           to,
		ReleaseSeats: booking.Status.HoldsSeats(),
	}
	if booking.PaymentStatus == models.PaymentPaid {
		t.PaymentStatus = models.PaymentRefunded
	}
	return s.store.TransitionBooking(ctx, t)
}
