package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/anjiri1684/ridepool/apperrors"
	"github.com/anjiri1684/ridepool/events"
	"github.com/anjiri1684/ridepool/models"
	"github.com/anjiri1684/ridepool/repositories"
	"github.com/google/uuid"
)

type CreateBookingInput struct {
	RideID           uuid.UUID
	Seats            int
	PaymentConfirmed bool
}

// driverMoves lists the statuses a driver may move a booking to and the
// statuses each move is allowed from. Completion is not here; it only
// happens when the ride completes.
var driverMoves = map[models.BookingStatus][]models.BookingStatus{
	models.BookingConfirmed: {models.BookingPending},
	models.BookingRejected:  {models.BookingPending},
	models.BookingCancelled: {models.BookingPending, models.BookingConfirmed},
}

type notice struct {
	kind  string
	title string
	body  string
}

type BookingService struct {
	store repositories.Store
	seats *SeatInventory
	deps  Deps
}

func NewBookingService(store repositories.Store, seats *SeatInventory, deps Deps) *BookingService {
	return &BookingService{store: store, seats: seats, deps: deps.withDefaults()}
}

func (s *BookingService) Create(ctx context.Context, actor *models.User, in CreateBookingInput) (*models.Booking, error) {
	if actor.Role != models.RolePassenger {
		return nil, apperrors.Forbidden("only passengers can book rides")
	}
	if !in.PaymentConfirmed {
		return nil, apperrors.ErrPaymentRequired
	}
	if actor.IsRestricted {
		return nil, apperrors.ErrActorRestricted
	}
	if in.Seats <= 0 {
		return nil, apperrors.Validation("seats_booked must be at least 1")
	}

	booking, err := s.seats.Reserve(ctx, in.RideID, actor.ID, in.Seats, models.PaymentPaid)
	if err != nil {
		return nil, err
	}
	ride := booking.Ride
	log.Printf("✅ Booking %s reserved %d seat(s) on ride %s", booking.ID, booking.SeatsBooked, ride.ID)

	s.deps.Notifier.Notify(ctx, actor.ID,
		"Booking Confirmed! ✅",
		fmt.Sprintf("Your booking for %s is confirmed", ride.Route()),
		map[string]string{"type": "booking_confirmed", "booking_id": booking.ID.String()},
	)
	s.deps.Notifier.Notify(ctx, ride.DriverID,
		"New Booking! 🎉",
		fmt.Sprintf("%s booked %d seat(s) for your ride to %s", actor.DisplayName(), booking.SeatsBooked, ride.Destination),
		map[string]string{"type": "new_booking", "booking_id": booking.ID.String(), "ride_id": ride.ID.String()},
	)
	s.deps.Events.Emit(events.BookingCreated, booking)
	return booking, nil
}

func (s *BookingService) Accept(ctx context.Context, actor *models.User, bookingID uuid.UUID) (*models.Booking, error) {
	return s.decide(ctx, actor, bookingID, models.BookingConfirmed, []models.BookingStatus{models.BookingPending}, func(r *models.Ride) notice {
		return notice{"booking_accepted", "Booking Accepted! 🎊",
			fmt.Sprintf("Driver accepted your booking for %s. Get ready for your ride.", r.Route())}
	})
}

// Reject declines a pending booking. The booking ends up cancelled and its
// seats go back to the ride.
func (s *BookingService) Reject(ctx context.Context, actor *models.User, bookingID uuid.UUID) (*models.Booking, error) {
	return s.decide(ctx, actor, bookingID, models.BookingCancelled, []models.BookingStatus{models.BookingPending}, rejectedNotice)
}

func (s *BookingService) UpdateStatus(ctx context.Context, actor *models.User, bookingID uuid.UUID, to models.BookingStatus) (*models.Booking, error) {
	if !to.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown booking status %q", to))
	}
	from, ok := driverMoves[to]
	if !ok {
		booking, err := s.store.GetBooking(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if err := s.requireDriver(actor, booking); err != nil {
			return nil, err
		}
		return nil, apperrors.InvalidTransition("booking", string(booking.Status), string(to))
	}

	switch to {
	case models.BookingConfirmed:
		return s.Accept(ctx, actor, bookingID)
	case models.BookingRejected:
		return s.decide(ctx, actor, bookingID, to, from, rejectedNotice)
	default:
		return s.decide(ctx, actor, bookingID, to, from, func(r *models.Ride) notice {
			return notice{"booking_cancelled", "Booking Cancelled",
				fmt.Sprintf("The driver cancelled your booking for %s. Your payment will be refunded.", r.Route())}
		})
	}
}

func rejectedNotice(r *models.Ride) notice {
	return notice{"booking_rejected", "Booking Rejected",
		fmt.Sprintf("Your booking for %s was not accepted.", r.Route())}
}

func (s *BookingService) requireDriver(actor *models.User, booking *models.Booking) error {
	if booking.Ride == nil || booking.Ride.DriverID != actor.ID {
		return apperrors.Forbidden("only the ride driver can update this booking")
	}
	return nil
}

func (s *BookingService) decide(ctx context.Context, actor *models.User, bookingID uuid.UUID, to models.BookingStatus, from []models.BookingStatus, msg func(*models.Ride) notice) (*models.Booking, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.requireDriver(actor, booking); err != nil {
		return nil, err
	}
	if !containsStatus(from, booking.Status) {
		return nil, apperrors.InvalidTransition("booking", string(booking.Status), string(to))
	}

	var updated *models.Booking
	if to.ReleasesSeats() {
		updated, err = s.seats.Release(ctx, *booking, to)
	} else {
		updated, err = s.store.TransitionBooking(ctx, repositories.BookingTransition{
			BookingID: booking.ID,
			From:      []models.BookingStatus{booking.Status},
			To:        to,
		})
	}
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Booking %s moved %s → %s by driver %s", updated.ID, booking.Status, updated.Status, actor.ID)

	n := msg(updated.Ride)
	s.deps.Notifier.Notify(ctx, updated.PassengerID, n.title, n.body,
		map[string]string{"type": n.kind, "booking_id": updated.ID.String()})
	s.deps.Events.Emit(events.BookingStatusKey(string(updated.Status)), updated)
	return updated, nil
}

// Cancel is the passenger's own cancellation of a booking that still holds seats.
func (s *BookingService) Cancel(ctx context.Context, actor *models.User, bookingID uuid.UUID) (*models.Booking, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.PassengerID != actor.ID {
		return nil, apperrors.Forbidden("only the passenger can cancel this booking")
	}
	if !booking.Status.HoldsSeats() {
		return nil, apperrors.InvalidTransition("booking", string(booking.Status), string(models.BookingCancelled))
	}

	updated, err := s.seats.Release(ctx, *booking, models.BookingCancelled)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Booking %s cancelled by passenger %s", updated.ID, actor.ID)

	s.deps.Notifier.Notify(ctx, updated.Ride.DriverID,
		"Booking Cancelled",
		fmt.Sprintf("%s cancelled %d seat(s) on your ride to %s", actor.DisplayName(), updated.SeatsBooked, updated.Ride.Destination),
		map[string]string{"type": "booking_cancelled", "booking_id": updated.ID.String(), "ride_id": updated.RideID.String()},
	)
	s.deps.Events.Emit(events.BookingStatusKey(string(updated.Status)), updated)
	return updated, nil
}

func (s *BookingService) ListForPassenger(ctx context.Context, actor *models.User) ([]models.Booking, error) {
	return s.store.ListBookingsByPassenger(ctx, actor.ID)
}

func (s *BookingService) ListForDriver(ctx context.Context, actor *models.User) ([]models.Booking, error) {
	return s.store.ListBookingsForDriver(ctx, actor.ID)
}

type Receipt struct {
	BookingID     uuid.UUID            `json:"booking_id"`
	Route         string               `json:"route"`
	DepartureTime time.Time            `json:"departure_time"`
	DriverName    string               `json:"driver_name"`
	PassengerName string               `json:"passenger_name"`
	SeatsBooked   int                  `json:"seats_booked"`
	PricePerSeat  models.Money         `json:"price_per_seat"`
	TotalPrice    models.Money         `json:"total_price"`
	Status        models.BookingStatus `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	BookedAt      time.Time            `json:"booked_at"`
	IssuedAt      time.Time            `json:"issued_at"`
}

// Receipt is visible to the booking's passenger and the ride's driver.
func (s *BookingService) Receipt(ctx context.Context, actor *models.User, bookingID uuid.UUID) (*Receipt, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	ride := booking.Ride
	if actor.ID != booking.PassengerID && actor.ID != ride.DriverID {
		return nil, apperrors.Forbidden("you are not part of this booking")
	}

	r := &Receipt{
		BookingID:     booking.ID,
		Route:         ride.Route(),
		DepartureTime: ride.DepartureTime,
		SeatsBooked:   booking.SeatsBooked,
		PricePerSeat:  ride.PricePerSeat,
		TotalPrice:    booking.TotalPrice,
		Status:        booking.Status,
		PaymentStatus: booking.PaymentStatus,
		BookedAt:      booking.CreatedAt,
		IssuedAt:      s.deps.Now(),
	}
	if driver, err := s.store.GetUser(ctx, ride.DriverID); err == nil {
		r.DriverName = driver.DisplayName()
	}
	if passenger, err := s.store.GetUser(ctx, booking.PassengerID); err == nil {
		r.PassengerName = passenger.DisplayName()
	}
	return r, nil
}

func containsStatus(set []models.BookingStatus, s models.BookingStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
