package repositories

import (
	"context"
	"time"

	"github.com/anjiri1684/ridepool/models"
	"github.com/google/uuid"
)

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// RecomputeTrust holds userID's row lock while it reads the full score
	// history, applies eval and stores the result. Recomputations for the
	// same user therefore never interleave.
	RecomputeTrust(ctx context.Context, userID uuid.UUID, eval func(scores []int) TrustFlags) (previous, current TrustFlags, err error)
}

// TrustFlags is the trust state stored on a user.
type TrustFlags struct {
	AverageRating float64
	IsWarned      bool
	IsRestricted  bool
}

func flagsOf(u *models.User) TrustFlags {
	return TrustFlags{AverageRating: u.AverageRating, IsWarned: u.IsWarned, IsRestricted: u.IsRestricted}
}

type DriverStore interface {
	GetDriverProfile(ctx context.Context, userID uuid.UUID) (*models.DriverProfile, error)
	SaveDriverProfile(ctx context.Context, profile *models.DriverProfile) error
	// ListDriverProfiles returns profiles in status with their users
	// attached, oldest submission first.
	ListDriverProfiles(ctx context.Context, status models.VerificationStatus) ([]models.DriverProfile, error)
}

type SubscriptionStore interface {
	GetSubscription(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	SaveSubscription(ctx context.Context, sub *models.Subscription) error
	DeactivateExpiredSubscriptions(ctx context.Context, today time.Time) (int64, error)
}

type RideFilter struct {
	StartLocation string
	Destination   string
	DepartingFrom time.Time
	Limit         int
}

type RideStore interface {
	CreateRide(ctx context.Context, ride *models.Ride) error
	GetRide(ctx context.Context, id uuid.UUID) (*models.Ride, error)
	SearchRides(ctx context.Context, filter RideFilter) ([]models.Ride, error)
	ListRidesByDriver(ctx context.Context, driverID uuid.UUID) ([]models.Ride, error)
	// TransitionRide moves the ride from one status to another only if it is
	// still in from.
	TransitionRide(ctx context.Context, id uuid.UUID, from, to models.RideStatus) (*models.Ride, error)
}

// Reservation is the input of one reservation window: the seat decrement and
// the booking insert commit together or not at all.
type Reservation struct {
	RideID        uuid.UUID
	PassengerID   uuid.UUID
	Seats         int
	PaymentStatus models.PaymentStatus
	Now           time.Time
}

// BookingTransition is a compare-and-set on a booking's status. When
// ReleaseSeats is set the booking's seats go back to its ride in the same
// transaction, so a release can only happen once per successful transition.
type BookingTransition struct {
	BookingID     uuid.UUID
	From          []models.BookingStatus
	To            models.BookingStatus
	PaymentStatus models.PaymentStatus
	ReleaseSeats  bool
}

type BookingStore interface {
	ReserveSeats(ctx context.Context, r Reservation) (*models.Booking, error)
	TransitionBooking(ctx context.Context, t BookingTransition) (*models.Booking, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ListBookingsByRide(ctx context.Context, rideID uuid.UUID, statuses ...models.BookingStatus) ([]models.Booking, error)
	ListBookingsByPassenger(ctx context.Context, passengerID uuid.UUID) ([]models.Booking, error)
	ListBookingsForDriver(ctx context.Context, driverID uuid.UUID) ([]models.Booking, error)
	ListBookingsDepartingBetween(ctx context.Context, status models.BookingStatus, from, to time.Time) ([]models.Booking, error)
	MarkReminderSent(ctx context.Context, bookingID uuid.UUID, at time.Time) error
}

type RatingStore interface {
	CreateRating(ctx context.Context, rating *models.Rating) error
	ListScoresForReviewee(ctx context.Context, revieweeID uuid.UUID) ([]int, error)
	// ListRatingsForReviewee returns ratings newest first with Reviewer set.
	ListRatingsForReviewee(ctx context.Context, revieweeID uuid.UUID) ([]models.Rating, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type ChatStore interface {
	// GetOrCreateChatRoom loads the room for room.BookingID into room, or
	// inserts room when there is none yet. created reports which happened.
	GetOrCreateChatRoom(ctx context.Context, room *models.ChatRoom) (created bool, err error)
	GetChatRoom(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error)
	// ListChatRooms returns userID's rooms, most recently active first, with
	// the booking, last message and userID's unread count filled in.
	ListChatRooms(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error)
	// CreateMessage stores m and bumps its room's updated_at.
	CreateMessage(ctx context.Context, m *models.Message) error
	ListMessages(ctx context.Context, roomID uuid.UUID, limit, offset int) ([]models.Message, error)
	// MarkMessagesRead marks everything in the room not sent by readerID as read.
	MarkMessagesRead(ctx context.Context, roomID, readerID uuid.UUID) (int64, error)
}

// Store is the persistence port of the booking engine.
type Store interface {
	UserStore
	DriverStore
	SubscriptionStore
	RideStore
	BookingStore
	RatingStore
	NotificationStore
	ChatStore
}

func containsStatus(set []models.BookingStatus, s models.BookingStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func statusStrings(set []models.BookingStatus) []string {
	out := make([]string, len(set))
	for i, s := range set {
		out[i] = string(s)
	}
	return out
}
