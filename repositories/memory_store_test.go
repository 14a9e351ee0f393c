package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/anjiri1684/ridepool/apperrors"
	"github.com/anjiri1684/ridepool/models"
	"github.com/google/uuid"
)

func seedRide(t *testing.T, s *MemoryStore, seats int) *models.Ride {
	t.Helper()
	ride := &models.Ride{
		DriverID:       uuid.New(),
		StartLocation:  "Kigali",
		Destination:    "Huye",
		DepartureTime:  time.Now().Add(3 * time.Hour),
		PricePerSeat:   150000,
		TotalSeats:     seats,
		AvailableSeats: seats,
	}
	if err := s.CreateRide(context.Background(), ride); err != nil {
		t.Fatalf("create ride: %v", err)
	}
	return ride
}

func reserve(s *MemoryStore, rideID uuid.UUID, seats int) (*models.Booking, error) {
	return s.ReserveSeats(context.Background(), Reservation{
		RideID:        rideID,
		PassengerID:   uuid.New(),
		Seats:         seats,
		PaymentStatus: models.PaymentPaid,
		Now:           time.Now(),
	})
}

func TestMemoryReserveSeats_DecrementsAndPrices(t *testing.T) {
	s := NewMemoryStore()
	ride := seedRide(t, s, 3)

	b, err := reserve(s, ride.ID, 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if b.Status != models.BookingPending {
		t.Fatalf("expected pending booking, got %s", b.Status)
	}
	if b.TotalPrice != 300000 {
		t.Fatalf("expected total 3000.00, got %s", b.TotalPrice)
	}
	got, _ := s.GetRide(context.Background(), ride.ID)
	if got.AvailableSeats != 1 {
		t.Fatalf("expected 1 seat left, got %d", got.AvailableSeats)
	}
}

func TestMemoryReserveSeats_Failures(t *testing.T) {
	s := NewMemoryStore()
	ride := seedRide(t, s, 2)

	if _, err := reserve(s, ride.ID, 3); !errors.Is(err, apperrors.ErrInsufficientSeats) {
		t.Fatalf("expected insufficient seats, got %v", err)
	}
	if _, err := reserve(s, uuid.New(), 1); !errors.Is(err, apperrors.ErrRideNotFound) {
		t.Fatalf("expected ride not found, got %v", err)
	}

	departed := seedRide(t, s, 2)
	s.mu.Lock()
	r := s.rides[departed.ID]
	r.DepartureTime = time.Now().Add(-time.Minute)
	s.rides[departed.ID] = r
	s.mu.Unlock()
	if _, err := reserve(s, departed.ID, 1); !errors.Is(err, apperrors.ErrRideNotBookable) {
		t.Fatalf("expected ride not bookable, got %v", err)
	}

	if _, err := s.TransitionRide(context.Background(), ride.ID, models.RideActive, models.RideCancelled); err != nil {
		t.Fatalf("cancel ride: %v", err)
	}
	if _, err := reserve(s, ride.ID, 1); !errors.Is(err, apperrors.ErrRideNotBookable) {
		t.Fatalf("expected ride not bookable after cancel, got %v", err)
	}
}

func TestMemoryReserveSeats_ConcurrentNeverOversells(t *testing.T) {
	s := NewMemoryStore()
	ride := seedRide(t, s, 3)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, n := range []int{2, 2} {
		wg.Add(1)
		go func(seats int) {
			defer wg.Done()
			_, err := reserve(s, ride.ID, seats)
			results <- err
		}(n)
	}
	wg.Wait()
	close(results)

	var ok, short int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperrors.ErrInsufficientSeats):
			short++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 || short != 1 {
		t.Fatalf("expected one success and one failure, got %d/%d", ok, short)
	}
	got, _ := s.GetRide(context.Background(), ride.ID)
	if got.AvailableSeats != 1 {
		t.Fatalf("expected 1 seat left, got %d", got.AvailableSeats)
	}
}

func TestMemoryReserveSeats_ManyConcurrentFitExactly(t *testing.T) {
	s := NewMemoryStore()
	ride := seedRide(t, s, 20)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := reserve(s, ride.ID, 1); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("expected every reservation to fit, got %v", err)
	}
	got, _ := s.GetRide(context.Background(), ride.ID)
	if got.AvailableSeats != 0 {
		t.Fatalf("expected ride to be full, got %d", got.AvailableSeats)
	}
}

func TestMemoryTransitionBooking_ReleasesOnce(t *testing.T) {
	s := NewMemoryStore()
	ride := seedRide(t, s, 3)
	b, err := reserve(s, ride.ID, 2)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.TransitionBooking(context.Background(), BookingTransition{
				BookingID:    b.ID,
				From:         []models.BookingStatus{models.BookingPending},
				To:           models.BookingCancelled,
				ReleaseSeats: true,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, invalid int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperrors.ErrInvalidTransition):
			invalid++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 || invalid != 1 {
		t.Fatalf("expected exactly one transition to win, got %d/%d", ok, invalid)
	}
	got, _ := s.GetRide(context.Background(), ride.ID)
	if got.AvailableSeats != 3 {
		t.Fatalf("expected seats restored to 3, got %d", got.AvailableSeats)
	}
}

func TestMemoryTransitionBooking_PaymentStatus(t *testing.T) {
	s := NewMemoryStore()
	ride := seedRide(t, s, 2)
	b, _ := reserve(s, ride.ID, 1)

	out, err := s.TransitionBooking(context.Background(), BookingTransition{
		BookingID:     b.ID,
		From:          []models.BookingStatus{models.BookingPending},
		To:            models.BookingCancelled,
		PaymentStatus: models.PaymentRefunded,
		ReleaseSeats:  true,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out.PaymentStatus != models.PaymentRefunded {
		t.Fatalf("expected refunded, got %s", out.PaymentStatus)
	}
	if out.Ride == nil || out.Ride.AvailableSeats != 2 {
		t.Fatalf("expected ride attached with 2 seats, got %+v", out.Ride)
	}
}

func TestMemoryNotifications_Pagination(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	user := uuid.New()
	for i := 0; i < 5; i++ {
		n := &models.Notification{UserID: user, Title: "t", Message: "m", CreatedAt: time.Now().Add(time.Duration(i) * time.Second)}
		if err := s.CreateNotification(ctx, n); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	page, _ := s.ListNotifications(ctx, user, 2, 0)
	if len(page) != 2 || page[0].CreatedAt.Before(page[1].CreatedAt) {
		t.Fatalf("expected newest-first page of 2, got %d", len(page))
	}
	if err := s.MarkNotificationRead(ctx, uuid.New(), page[0].ID); !errors.Is(err, apperrors.ErrNotificationNotFound) {
		t.Fatalf("expected not found for another user, got %v", err)
	}
	n, _ := s.MarkAllNotificationsRead(ctx, user)
	if n != 5 {
		t.Fatalf("expected 5 marked, got %d", n)
	}
}

func TestMemoryReserveSeats_DriverCannotBookOwnRide(t *testing.T) {
	s := NewMemoryStore()
	ride := seedRide(t, s, 3)

	_, err := s.ReserveSeats(context.Background(), Reservation{
		RideID: ride.ID, PassengerID: ride.DriverID, Seats: 1, PaymentStatus: models.PaymentPaid, Now: time.Now(),
	})
	if !errors.Is(err, apperrors.ErrOwnRide) {
		t.Fatalf("expected own ride refusal, got %v", err)
	}
	got, _ := s.GetRide(context.Background(), ride.ID)
	if got.AvailableSeats != 3 {
		t.Fatalf("expected seats untouched, got %d", got.AvailableSeats)
	}
}

func TestMemoryReserveSeats_OtherRidesDoNotWait(t *testing.T) {
	s := NewMemoryStore()
	busy := seedRide(t, s, 3)
	free := seedRide(t, s, 3)

	unlock := s.lockRide(busy.ID)
	defer unlock()

	done := make(chan error, 1)
	go func() {
		_, err := reserve(s, free.ID, 1)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("reserve: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("reservation on an unrelated ride blocked behind a held ride lock")
	}
}

func TestMemoryReserveSeats_DoesNotUndoConcurrentCancel(t *testing.T) {
	s := NewMemoryStore()
	ride := seedRide(t, s, 40)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reserve(s, ride.ID, 1)
		}()
	}
	if _, err := s.TransitionRide(ctx, ride.ID, models.RideActive, models.RideCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	wg.Wait()

	got, _ := s.GetRide(ctx, ride.ID)
	if got.Status != models.RideCancelled {
		t.Fatalf("expected cancel to stick, got %s", got.Status)
	}
	booked, _ := s.ListBookingsByRide(ctx, ride.ID)
	if got.AvailableSeats != 40-len(booked) {
		t.Fatalf("expected %d seats left, got %d", 40-len(booked), got.AvailableSeats)
	}
}

func averageFlags(scores []int) TrustFlags {
	if len(scores) == 0 {
		return TrustFlags{}
	}
	sum := 0
	for _, v := range scores {
		sum += v
	}
	avg := float64(sum) / float64(len(scores))
	return TrustFlags{AverageRating: avg, IsWarned: avg < 3, IsRestricted: avg < 2}
}

func TestMemoryRecomputeTrust_SerializesPerUser(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	user := &models.User{FullName: "Driver", Email: "d@example.com", Phone: "0788000001", Role: models.RoleDriver}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	rate := func(score int) {
		if err := s.CreateRating(ctx, &models.Rating{BookingID: uuid.New(), ReviewerID: uuid.New(), RevieweeID: user.ID, Score: score}); err != nil {
			t.Fatalf("create rating: %v", err)
		}
	}
	rate(1)

	inFirst := make(chan struct{})
	release := make(chan struct{})
	firstDone := make(chan error, 1)
	go func() {
		_, _, err := s.RecomputeTrust(ctx, user.ID, func(scores []int) TrustFlags {
			close(inFirst)
			<-release
			return averageFlags(scores)
		})
		firstDone <- err
	}()
	<-inFirst

	for i := 0; i < 3; i++ {
		rate(5)
	}
	secondDone := make(chan TrustFlags, 1)
	go func() {
		_, current, _ := s.RecomputeTrust(ctx, user.ID, averageFlags)
		secondDone <- current
	}()
	select {
	case <-secondDone:
		t.Fatalf("second recompute must wait for the first")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first recompute: %v", err)
	}
	if current := <-secondDone; current.AverageRating != 4 {
		t.Fatalf("expected second recompute to see all four scores, got %+v", current)
	}
	got, _ := s.GetUser(ctx, user.ID)
	if got.AverageRating != 4 || got.IsWarned || got.IsRestricted {
		t.Fatalf("expected stored tier from the full history, got avg=%v warned=%v restricted=%v", got.AverageRating, got.IsWarned, got.IsRestricted)
	}
}

func TestMemoryRecomputeTrust_ReportsPreviousFlags(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	user := &models.User{FullName: "Rider", Email: "r@example.com", Phone: "0788000002", IsWarned: true, AverageRating: 2.5}
	s.CreateUser(ctx, user)

	previous, current, err := s.RecomputeTrust(ctx, user.ID, averageFlags)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if !previous.IsWarned || previous.AverageRating != 2.5 {
		t.Fatalf("expected previous flags, got %+v", previous)
	}
	if current != (TrustFlags{}) {
		t.Fatalf("expected clean flags with no ratings, got %+v", current)
	}
	if _, _, err := s.RecomputeTrust(ctx, uuid.New(), averageFlags); !errors.Is(err, apperrors.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}

func TestMemoryChatRooms_OnePerBookingWithUnreadCounts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	ride := seedRide(t, s, 3)
	b, err := reserve(s, ride.ID, 1)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	first := &models.ChatRoom{BookingID: b.ID, DriverID: ride.DriverID, PassengerID: b.PassengerID}
	if created, err := s.GetOrCreateChatRoom(ctx, first); err != nil || !created {
		t.Fatalf("expected a new room, got created=%v err=%v", created, err)
	}
	second := &models.ChatRoom{BookingID: b.ID, DriverID: ride.DriverID, PassengerID: b.PassengerID}
	if created, err := s.GetOrCreateChatRoom(ctx, second); err != nil || created || second.ID != first.ID {
		t.Fatalf("expected the same room back, got created=%v id=%s err=%v", created, second.ID, err)
	}

	if err := s.CreateMessage(ctx, &models.Message{ChatRoomID: first.ID, SenderID: b.PassengerID, Content: "hi"}); err != nil {
		t.Fatalf("create message: %v", err)
	}
	if err := s.CreateMessage(ctx, &models.Message{ChatRoomID: uuid.New(), SenderID: b.PassengerID, Content: "lost"}); !errors.Is(err, apperrors.ErrChatRoomNotFound) {
		t.Fatalf("expected chat room not found, got %v", err)
	}

	rooms, err := s.ListChatRooms(ctx, ride.DriverID)
	if err != nil || len(rooms) != 1 {
		t.Fatalf("expected one room, got %d %v", len(rooms), err)
	}
	if rooms[0].UnreadCount != 1 || rooms[0].Booking == nil || rooms[0].Booking.Ride == nil {
		t.Fatalf("unexpected room %+v", rooms[0])
	}
	if rooms, _ := s.ListChatRooms(ctx, b.PassengerID); rooms[0].UnreadCount != 0 {
		t.Fatalf("sender must not see their own message as unread")
	}
	if rooms, _ := s.ListChatRooms(ctx, uuid.New()); len(rooms) != 0 {
		t.Fatalf("expected no rooms for a stranger, got %d", len(rooms))
	}
}

func TestMemoryListDriverProfiles_ByStatus(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for i, status := range []models.VerificationStatus{models.VerificationPending, models.VerificationApproved, models.VerificationPending} {
		u := &models.User{FullName: "Driver", Email: uuid.NewString() + "@example.com", Phone: uuid.NewString()[:12], Role: models.RoleDriver}
		if err := s.CreateUser(ctx, u); err != nil {
			t.Fatalf("create user %d: %v", i, err)
		}
		if err := s.SaveDriverProfile(ctx, &models.DriverProfile{UserID: u.ID, PlateNumber: "RAD00" + string(rune('1'+i)), VerificationStatus: status}); err != nil {
			t.Fatalf("save profile %d: %v", i, err)
		}
	}

	pending, err := s.ListDriverProfiles(ctx, models.VerificationPending)
	if err != nil || len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d %v", len(pending), err)
	}
	for _, p := range pending {
		if p.User == nil || p.User.ID != p.UserID {
			t.Fatalf("expected user attached, got %+v", p)
		}
	}
	if pending[1].UpdatedAt.Before(pending[0].UpdatedAt) {
		t.Fatalf("expected oldest submission first")
	}
}
