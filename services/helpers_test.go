package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/anjiri1684/ridepool/models"
	"github.com/anjiri1684/ridepool/repositories"
	"github.com/google/uuid"
)

type sentNotification struct {
	UserID uuid.UUID
	Title  string
	Body   string
	Data   map[string]string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (r *recordingNotifier) Notify(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{UserID: userID, Title: title, Body: body, Data: data})
}

func (r *recordingNotifier) to(userID uuid.UUID) []sentNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sentNotification
	for _, n := range r.sent {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type recordingEvents struct {
	mu   sync.Mutex
	keys []string
}

func (r *recordingEvents) Emit(key string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
}

type livePush struct {
	UserID  uuid.UUID
	Payload interface{}
}

type recordingLive struct {
	mu     sync.Mutex
	pushed []livePush
}

func (r *recordingLive) PushLive(ctx context.Context, userID uuid.UUID, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushed = append(r.pushed, livePush{UserID: userID, Payload: payload})
}

func (r *recordingLive) to(userID uuid.UUID) []livePush {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []livePush
	for _, p := range r.pushed {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out
}

type testEnv struct {
	store    *repositories.MemoryStore
	notifier *recordingNotifier
	events   *recordingEvents
	live     *recordingLive
	now      time.Time

	seats    *SeatInventory
	bookings *BookingService
	rides    *RideService
	ratings  *RatingService
	trust    *TrustEvaluator
	subs     *SubscriptionService
	drivers  *DriverService
	accounts *AccountService
	chats    *ChatService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:    repositories.NewMemoryStore(),
		notifier: &recordingNotifier{},
		events:   &recordingEvents{},
		live:     &recordingLive{},
		now:      time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return env.now }
	deps := Deps{Notifier: env.notifier, Events: env.events, Live: env.live, Now: clock}

	env.seats = NewSeatInventory(env.store, clock)
	env.bookings = NewBookingService(env.store, env.seats, deps)
	env.rides = NewRideService(env.store, env.seats, true, deps)
	env.trust = NewTrustEvaluator(env.store, env.store, deps)
	env.ratings = NewRatingService(env.store, env.trust, deps)
	env.subs = NewSubscriptionService(env.store, 30, 30, clock)
	env.drivers = NewDriverService(env.store, deps)
	env.accounts = NewAccountService(env.store, env.subs, "test-secret")
	env.chats = NewChatService(env.store, deps)
	return env
}

func (e *testEnv) user(t *testing.T, name string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		FullName: name,
		Email:    name + "@example.com",
		Phone:    uuid.NewString()[:12],
		Role:     role,
		IsActive: true,
	}
	if err := e.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (e *testEnv) verifiedDriver(t *testing.T, name string) *models.User {
	t.Helper()
	d := e.user(t, name, models.RoleDriver)
	p := &models.DriverProfile{
		UserID:             d.ID,
		NationalID:         "1199880012345678",
		DriverLicense:      "RW-DL-001",
		CarModel:           "Toyota Noah",
		PlateNumber:        "RAD123A",
		Seats:              7,
		IsVerified:         true,
		VerificationStatus: models.VerificationApproved,
	}
	if err := e.store.SaveDriverProfile(context.Background(), p); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	return d
}

func (e *testEnv) ride(t *testing.T, driver *models.User, seats int) *models.Ride {
	t.Helper()
	r, err := e.rides.Create(context.Background(), driver, CreateRideInput{
		StartLocation: "Kigali",
		Destination:   "Huye",
		DepartureTime: e.now.Add(4 * time.Hour),
		PricePerSeat:  250000,
		Seats:         seats,
	})
	if err != nil {
		t.Fatalf("create ride: %v", err)
	}
	return r
}

func (e *testEnv) book(passenger *models.User, rideID uuid.UUID, seats int) (*models.Booking, error) {
	return e.bookings.Create(context.Background(), passenger, CreateBookingInput{
		RideID:           rideID,
		Seats:            seats,
		PaymentConfirmed: true,
	})
}

func (e *testEnv) availableSeats(t *testing.T, rideID uuid.UUID) int {
	t.Helper()
	r, err := e.store.GetRide(context.Background(), rideID)
	if err != nil {
		t.Fatalf("get ride: %v", err)
	}
	return r.AvailableSeats
}
