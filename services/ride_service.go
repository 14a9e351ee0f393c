package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/anjiri1684/ridepool/apperrors"
	"github.com/anjiri1684/ridepool/events"
	"github.com/anjiri1684/ridepool/models"
	"github.com/anjiri1684/ridepool/repositories"
	"github.com/google/uuid"
)

const searchLimit = 50

type CreateRideInput struct {
	StartLocation string
	Destination   string
	DepartureTime time.Time
	PricePerSeat  models.Money
	Seats         int
}

type RideService struct {
	store repositories.Store
	seats *SeatInventory
	deps  Deps

	// allowOverride turns on the staff bypass of driver verification.
	allowOverride bool
}

func NewRideService(store repositories.Store, seats *SeatInventory, allowOverride bool, deps Deps) *RideService {
	return &RideService{store: store, seats: seats, deps: deps.withDefaults(), allowOverride: allowOverride}
}

func (s *RideService) Create(ctx context.Context, actor *models.User, in CreateRideInput) (*models.Ride, error) {
	override := s.allowOverride && actor.HasOverride()
	if !override && !actor.IsDriver() {
		return nil, apperrors.Forbidden("only drivers can create rides")
	}
	if err := s.checkVerified(ctx, actor, override); err != nil {
		return nil, err
	}

	in.StartLocation = strings.TrimSpace(in.StartLocation)
	in.Destination = strings.TrimSpace(in.Destination)
	switch {
	case in.StartLocation == "" || in.Destination == "":
		return nil, apperrors.Validation("start_location and destination are required")
	case in.Seats <= 0:
		return nil, apperrors.Validation("available_seats must be at least 1")
	case in.PricePerSeat < 0:
		return nil, apperrors.Validation("price_per_seat cannot be negative")
	case in.PricePerSeat > models.MaxPricePerSeat:
		return nil, apperrors.Validation("price_per_seat is above the allowed maximum")
	case !in.DepartureTime.After(s.deps.Now()):
		return nil, apperrors.Validation("departure_time must be in the future")
	}

	ride := &models.Ride{
		DriverID:       actor.ID,
		StartLocation:  in.StartLocation,
		Destination:    in.Destination,
		DepartureTime:  in.DepartureTime,
		PricePerSeat:   in.PricePerSeat,
		TotalSeats:     in.Seats,
		AvailableSeats: in.Seats,
		Status:         models.RideActive,
	}
	if err := s.store.CreateRide(ctx, ride); err != nil {
		return nil, err
	}
	log.Printf("✅ Ride %s created by %s: %s", ride.ID, actor.ID, ride.Route())
	s.deps.Events.Emit(events.RideCreated, ride)
	return ride, nil
}

// checkVerified is the single verification gate. With override the actor
// skips the check and gets a verified profile provisioned if it has none.
func (s *RideService) checkVerified(ctx context.Context, actor *models.User, override bool) error {
	profile, err := s.store.GetDriverProfile(ctx, actor.ID)
	if errors.Is(err, apperrors.ErrProfileNotFound) {
		if !override {
			return apperrors.NotVerified("driver profile not found. please upload your documents")
		}
		p := models.AdminDriverProfile(actor.ID)
		if err := s.store.SaveDriverProfile(ctx, &p); err != nil {
			return err
		}
		log.Printf("✅ Provisioned driver profile for staff account %s", actor.ID)
		return nil
	}
	if err != nil {
		return err
	}
	if !override && !profile.IsVerified {
		return apperrors.NotVerified("you must be verified by admin before creating rides")
	}
	return nil
}

func (s *RideService) Search(ctx context.Context, start, destination string) ([]models.Ride, error) {
	return s.store.SearchRides(ctx, repositories.RideFilter{
		StartLocation: strings.TrimSpace(start),
		Destination:   strings.TrimSpace(destination),
		DepartingFrom: s.deps.Now(),
		Limit:         searchLimit,
	})
}

func (s *RideService) ListForDriver(ctx context.Context, actor *models.User) ([]models.Ride, error) {
	return s.store.ListRidesByDriver(ctx, actor.ID)
}

type RideCompletion struct {
	Ride      *models.Ride     `json:"ride"`
	Completed []models.Booking `json:"completed_bookings"`
	Failed    []uuid.UUID      `json:"failed_bookings,omitempty"`
}

func (s *RideService) ownedRide(ctx context.Context, actor *models.User, rideID uuid.UUID, verb string) (*models.Ride, error) {
	ride, err := s.store.GetRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID != actor.ID {
		return nil, apperrors.Forbidden("only the ride driver can " + verb + " this ride")
	}
	return ride, nil
}

// Complete closes the ride and completes each confirmed booking on its own.
// A booking that fails to complete is logged and reported in Failed; it never
// stops the others. Pending bookings are left as they are.
func (s *RideService) Complete(ctx context.Context, actor *models.User, rideID uuid.UUID) (*RideCompletion, error) {
	if _, err := s.ownedRide(ctx, actor, rideID, "complete"); err != nil {
		return nil, err
	}
	ride, err := s.store.TransitionRide(ctx, rideID, models.RideActive, models.RideCompleted)
	if err != nil {
		return nil, err
	}

	confirmed, err := s.store.ListBookingsByRide(ctx, ride.ID, models.BookingConfirmed)
	if err != nil {
		return nil, fmt.Errorf("list confirmed bookings of ride %s: %w", ride.ID, err)
	}

	out := &RideCompletion{Ride: ride, Completed: []models.Booking{}}
	for _, b := range confirmed {
		done, err := s.store.TransitionBooking(ctx, repositories.BookingTransition{
			BookingID: b.ID,
			From:      []models.BookingStatus{models.BookingConfirmed},
			To:        models.BookingCompleted,
		})
		if err != nil {
			log.Printf("🔥 Failed to complete booking %s on ride %s: %v", b.ID, ride.ID, err)
			out.Failed = append(out.Failed, b.ID)
			continue
		}
		out.Completed = append(out.Completed, *done)

		s.deps.Notifier.Notify(ctx, done.PassengerID,
			"Ride Completed! ⭐",
			"Your ride is complete. Please rate your driver!",
			map[string]string{"type": "ride_completed", "booking_id": done.ID.String(), "ride_id": ride.ID.String()},
		)
		s.deps.Events.Emit(events.BookingStatusKey(string(done.Status)), done)
	}

	s.deps.Notifier.Notify(ctx, ride.DriverID,
		"Ride Completed ✅",
		fmt.Sprintf("Your ride to %s has been marked as completed.", ride.Destination),
		map[string]string{"type": "ride_completed", "ride_id": ride.ID.String()},
	)
	s.deps.Events.Emit(events.RideCompleted, out)
	log.Printf("✅ Ride %s completed with %d booking(s)", ride.ID, len(out.Completed))
	return out, nil
}

type RideCancellation struct {
	Ride      *models.Ride     `json:"ride"`
	Cancelled []models.Booking `json:"cancelled_bookings"`
	Failed    []uuid.UUID      `json:"failed_bookings,omitempty"`
}

// Cancel withdraws an active ride. Every booking still holding seats is
// cancelled, refunded and given its seats back.
func (s *RideService) Cancel(ctx context.Context, actor *models.User, rideID uuid.UUID) (*RideCancellation, error) {
	if _, err := s.ownedRide(ctx, actor, rideID, "cancel"); err != nil {
		return nil, err
	}
	ride, err := s.store.TransitionRide(ctx, rideID, models.RideActive, models.RideCancelled)
	if err != nil {
		return nil, err
	}

	live, err := s.store.ListBookingsByRide(ctx, ride.ID, models.BookingPending, models.BookingConfirmed)
	if err != nil {
		return nil, fmt.Errorf("list bookings of ride %s: %w", ride.ID, err)
	}

	out := &RideCancellation{Ride: ride, Cancelled: []models.Booking{}}
	for _, b := range live {
		done, err := s.seats.Release(ctx, b, models.BookingCancelled)
		if err != nil {
			log.Printf("🔥 Failed to cancel booking %s on ride %s: %v", b.ID, ride.ID, err)
			out.Failed = append(out.Failed, b.ID)
			continue
		}
		out.Cancelled = append(out.Cancelled, *done)

		s.deps.Notifier.Notify(ctx, done.PassengerID,
			"Ride Cancelled",
			fmt.Sprintf("Your ride %s has been cancelled by the driver. Your payment will be refunded.", ride.Route()),
			map[string]string{"type": "ride_cancelled", "booking_id": done.ID.String(), "ride_id": ride.ID.String()},
		)
		s.deps.Events.Emit(events.BookingStatusKey(string(done.Status)), done)
	}
	if fresh, err := s.store.GetRide(ctx, ride.ID); err == nil {
		out.Ride = fresh
	}

	s.deps.Events.Emit(events.RideCancelled, out)
	log.Printf("✅ Ride %s cancelled, %d booking(s) released", ride.ID, len(out.Cancelled))
	return out, nil
}
