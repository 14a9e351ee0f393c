package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anjiri1684/ridepool/apperrors"
	"github.com/anjiri1684/ridepool/models"
	"github.com/google/uuid"
)

// MemoryStore keeps everything in process. Anything that rewrites a ride
// (reservations, seat releases, status changes) holds that ride's lock for
// the whole read-modify-write, so reservations on different rides never wait
// on each other. mu only guards individual map reads and writes.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]models.User
	profiles      map[uuid.UUID]models.DriverProfile
	subscriptions map[uuid.UUID]models.Subscription
	rides         map[uuid.UUID]models.Ride
	bookings      map[uuid.UUID]models.Booking
	ratings       map[uuid.UUID]models.Rating
	notifications map[uuid.UUID]models.Notification
	chatRooms     map[uuid.UUID]models.ChatRoom
	messages      map[uuid.UUID]models.Message

	rideLocks sync.Map
	userLocks sync.Map
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[uuid.UUID]models.User),
		profiles:      make(map[uuid.UUID]models.DriverProfile),
		subscriptions: make(map[uuid.UUID]models.Subscription),
		rides:         make(map[uuid.UUID]models.Ride),
		bookings:      make(map[uuid.UUID]models.Booking),
		ratings:       make(map[uuid.UUID]models.Rating),
		notifications: make(map[uuid.UUID]models.Notification),
		chatRooms:     make(map[uuid.UUID]models.ChatRoom),
		messages:      make(map[uuid.UUID]models.Message),
	}
}

func (s *MemoryStore) lockRide(id uuid.UUID) func() {
	return s.lockKey(&s.rideLocks, id)
}

func (s *MemoryStore) lockKey(locks *sync.Map, id uuid.UUID) func() {
	m, _ := locks.LoadOrStore(id, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func stamp(created, updated *time.Time) {
	now := time.Now()
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) || (user.Phone != "" && u.Phone == user.Phone) {
			return apperrors.Conflict("email or phone already registered", nil)
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = models.RolePassenger
	}
	stamp(&user.CreatedAt, &user.UpdatedAt)
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (s *MemoryStore) RecomputeTrust(ctx context.Context, userID uuid.UUID, eval func(scores []int) TrustFlags) (previous, current TrustFlags, err error) {
	unlock := s.lockKey(&s.userLocks, userID)
	defer unlock()

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return TrustFlags{}, TrustFlags{}, err
	}
	previous = flagsOf(user)
	scores, err := s.ListScoresForReviewee(ctx, userID)
	if err != nil {
		return TrustFlags{}, TrustFlags{}, err
	}
	current = eval(scores)

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[userID]
	u.AverageRating = current.AverageRating
	u.IsWarned = current.IsWarned
	u.IsRestricted = current.IsRestricted
	stamp(nil, &u.UpdatedAt)
	s.users[userID] = u
	return previous, current, nil
}

func (s *MemoryStore) GetDriverProfile(ctx context.Context, userID uuid.UUID) (*models.DriverProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, apperrors.ErrProfileNotFound
	}
	return &p, nil
}

func (s *MemoryStore) SaveDriverProfile(ctx context.Context, profile *models.DriverProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(&profile.CreatedAt, &profile.UpdatedAt)
	s.profiles[profile.UserID] = *profile
	return nil
}

func (s *MemoryStore) ListDriverProfiles(ctx context.Context, status models.VerificationStatus) ([]models.DriverProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.DriverProfile
	for _, p := range s.profiles {
		if p.VerificationStatus != status {
			continue
		}
		if u, ok := s.users[p.UserID]; ok {
			p.User = &u
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

func (s *MemoryStore) GetSubscription(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subscriptions {
		if sub.UserID == userID {
			return &sub, nil
		}
	}
	return nil, apperrors.ErrSubscriptionNotFound
}

func (s *MemoryStore) SaveSubscription(ctx context.Context, sub *models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.ID == uuid.Nil {
		for _, existing := range s.subscriptions {
			if existing.UserID == sub.UserID {
				return apperrors.Conflict("subscription already exists", nil)
			}
		}
		sub.ID = uuid.New()
	}
	stamp(&sub.CreatedAt, &sub.UpdatedAt)
	s.subscriptions[sub.ID] = *sub
	return nil
}

func (s *MemoryStore) DeactivateExpiredSubscriptions(ctx context.Context, today time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	day := models.Day(today)
	var n int64
	for id, sub := range s.subscriptions {
		if sub.IsActive && models.Day(sub.ExpiryDate).Before(day) {
			sub.IsActive = false
			s.subscriptions[id] = sub
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CreateRide(ctx context.Context, ride *models.Ride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ride.ID == uuid.Nil {
		ride.ID = uuid.New()
	}
	if ride.Status == "" {
		ride.Status = models.RideActive
	}
	stamp(&ride.CreatedAt, &ride.UpdatedAt)
	stored := *ride
	stored.Bookings = nil
	s.rides[ride.ID] = stored
	return nil
}

func (s *MemoryStore) GetRide(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rides[id]
	if !ok {
		return nil, apperrors.ErrRideNotFound
	}
	return &r, nil
}

func (s *MemoryStore) SearchRides(ctx context.Context, filter RideFilter) ([]models.Ride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := strings.ToLower(filter.StartLocation)
	dest := strings.ToLower(filter.Destination)
	var out []models.Ride
	for _, r := range s.rides {
		if r.Status != models.RideActive || r.AvailableSeats <= 0 || r.DepartureTime.Before(filter.DepartingFrom) {
			continue
		}
		if start != "" && !strings.Contains(strings.ToLower(r.StartLocation), start) {
			continue
		}
		if dest != "" && !strings.Contains(strings.ToLower(r.Destination), dest) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartureTime.Before(out[j].DepartureTime) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) ListRidesByDriver(ctx context.Context, driverID uuid.UUID) ([]models.Ride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Ride
	for _, r := range s.rides {
		if r.DriverID != driverID {
			continue
		}
		for _, b := range s.bookings {
			if b.RideID == r.ID {
				r.Bookings = append(r.Bookings, b)
			}
		}
		sort.Slice(r.Bookings, func(i, j int) bool { return r.Bookings[i].CreatedAt.Before(r.Bookings[j].CreatedAt) })
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartureTime.After(out[j].DepartureTime) })
	return out, nil
}

func (s *MemoryStore) TransitionRide(ctx context.Context, id uuid.UUID, from, to models.RideStatus) (*models.Ride, error) {
	unlock := s.lockRide(id)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[id]
	if !ok {
		return nil, apperrors.ErrRideNotFound
	}
	if r.Status != from {
		return nil, apperrors.InvalidTransition("ride", string(r.Status), string(to))
	}
	r.Status = to
	stamp(nil, &r.UpdatedAt)
	s.rides[id] = r
	return &r, nil
}

func (s *MemoryStore) ReserveSeats(ctx context.Context, res Reservation) (*models.Booking, error) {
	unlock := s.lockRide(res.RideID)
	defer unlock()

	s.mu.RLock()
	ride, ok := s.rides[res.RideID]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.ErrRideNotFound
	}
	if ride.DriverID == res.PassengerID {
		return nil, apperrors.ErrOwnRide
	}
	if err := ride.CheckBookable(res.Seats, res.Now); err != nil {
		return nil, err
	}
	total, err := ride.PricePerSeat.Mul(res.Seats)
	if err != nil {
		return nil, apperrors.Validation("booking total is out of range")
	}

	ride.AvailableSeats -= res.Seats
	ride.UpdatedAt = res.Now
	booking := models.Booking{
		ID:            uuid.New(),
		RideID:        ride.ID,
		PassengerID:   res.PassengerID,
		SeatsBooked:   res.Seats,
		TotalPrice:    total,
		Status:        models.BookingPending,
		PaymentStatus: res.PaymentStatus,
	}
	stamp(&booking.CreatedAt, &booking.UpdatedAt)

	s.mu.Lock()
	s.rides[ride.ID] = ride
	s.bookings[booking.ID] = booking
	s.mu.Unlock()

	booking.Ride = &ride
	return &booking, nil
}

func (s *MemoryStore) TransitionBooking(ctx context.Context, t BookingTransition) (*models.Booking, error) {
	s.mu.RLock()
	current, ok := s.bookings[t.BookingID]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.ErrBookingNotFound
	}

	// Seat releases mutate the ride counter, so they queue with reservations.
	if t.ReleaseSeats {
		unlock := s.lockRide(current.RideID)
		defer unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bookings[t.BookingID]
	if !containsStatus(t.From, b.Status) {
		return nil, apperrors.InvalidTransition("booking", string(b.Status), string(t.To))
	}
	b.Status = t.To
	if t.PaymentStatus != "" {
		b.PaymentStatus = t.PaymentStatus
	}
	stamp(nil, &b.UpdatedAt)
	s.bookings[b.ID] = b

	ride := s.rides[b.RideID]
	if t.ReleaseSeats {
		ride.AvailableSeats += b.SeatsBooked
		stamp(nil, &ride.UpdatedAt)
		s.rides[ride.ID] = ride
	}
	b.Ride = &ride
	return &b, nil
}

func (s *MemoryStore) withRide(b models.Booking) models.Booking {
	if r, ok := s.rides[b.RideID]; ok {
		b.Ride = &r
	}
	return b
}

func (s *MemoryStore) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, apperrors.ErrBookingNotFound
	}
	b = s.withRide(b)
	return &b, nil
}

func (s *MemoryStore) filterBookings(keep func(models.Booking) bool, newestFirst bool) []models.Booking {
	var out []models.Booking
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, s.withRide(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *MemoryStore) ListBookingsByRide(ctx context.Context, rideID uuid.UUID, statuses ...models.BookingStatus) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterBookings(func(b models.Booking) bool {
		return b.RideID == rideID && (len(statuses) == 0 || containsStatus(statuses, b.Status))
	}, false), nil
}

func (s *MemoryStore) ListBookingsByPassenger(ctx context.Context, passengerID uuid.UUID) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterBookings(func(b models.Booking) bool { return b.PassengerID == passengerID }, true), nil
}

func (s *MemoryStore) ListBookingsForDriver(ctx context.Context, driverID uuid.UUID) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterBookings(func(b models.Booking) bool {
		r, ok := s.rides[b.RideID]
		return ok && r.DriverID == driverID
	}, true), nil
}

func (s *MemoryStore) ListBookingsDepartingBetween(ctx context.Context, status models.BookingStatus, from, to time.Time) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterBookings(func(b models.Booking) bool {
		r, ok := s.rides[b.RideID]
		return ok && b.Status == status && b.ReminderSentAt == nil &&
			!r.DepartureTime.Before(from) && !r.DepartureTime.After(to)
	}, false), nil
}

func (s *MemoryStore) MarkReminderSent(ctx context.Context, bookingID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return apperrors.ErrBookingNotFound
	}
	b.ReminderSentAt = &at
	s.bookings[bookingID] = b
	return nil
}

func (s *MemoryStore) CreateRating(ctx context.Context, rating *models.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.ratings {
		if r.BookingID == rating.BookingID {
			return apperrors.ErrDuplicateRating
		}
	}
	if rating.ID == uuid.Nil {
		rating.ID = uuid.New()
	}
	stamp(&rating.CreatedAt, nil)
	s.ratings[rating.ID] = *rating
	return nil
}

func (s *MemoryStore) ListScoresForReviewee(ctx context.Context, revieweeID uuid.UUID) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rs []models.Rating
	for _, r := range s.ratings {
		if r.RevieweeID == revieweeID {
			rs = append(rs, r)
		}
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].CreatedAt.Before(rs[j].CreatedAt) })
	scores := make([]int, len(rs))
	for i, r := range rs {
		scores[i] = r.Score
	}
	return scores, nil
}

func (s *MemoryStore) ListRatingsForReviewee(ctx context.Context, revieweeID uuid.UUID) ([]models.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Rating
	for _, r := range s.ratings {
		if r.RevieweeID != revieweeID {
			continue
		}
		if u, ok := s.users[r.ReviewerID]; ok {
			r.Reviewer = &u
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	stamp(&n.CreatedAt, nil)
	s.notifications[n.ID] = *n
	return nil
}

func (s *MemoryStore) ListNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []models.Notification{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) MarkNotificationRead(ctx context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return apperrors.ErrNotificationNotFound
	}
	n.IsRead = true
	s.notifications[id] = n
	return nil
}

func (s *MemoryStore) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for id, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			s.notifications[id] = n
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) GetOrCreateChatRoom(ctx context.Context, room *models.ChatRoom) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.chatRooms {
		if r.BookingID == room.BookingID {
			*room = r
			return false, nil
		}
	}
	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}
	stamp(&room.CreatedAt, &room.UpdatedAt)
	stored := *room
	stored.Booking = nil
	s.chatRooms[room.ID] = stored
	return true, nil
}

func (s *MemoryStore) GetChatRoom(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.chatRooms[id]
	if !ok {
		return nil, apperrors.ErrChatRoomNotFound
	}
	return &r, nil
}

func (s *MemoryStore) ListChatRooms(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ChatRoom
	for _, r := range s.chatRooms {
		if !r.HasMember(userID) {
			continue
		}
		if b, ok := s.bookings[r.BookingID]; ok {
			b = s.withRide(b)
			r.Booking = &b
		}
		for _, m := range s.messages {
			if m.ChatRoomID != r.ID {
				continue
			}
			if r.LastMessage == nil || m.CreatedAt.After(r.LastMessage.CreatedAt) {
				last := m
				r.LastMessage = &last
			}
			if !m.IsRead && m.SenderID != userID {
				r.UnreadCount++
			}
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *MemoryStore) CreateMessage(ctx context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.chatRooms[m.ChatRoomID]
	if !ok {
		return apperrors.ErrChatRoomNotFound
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	stamp(&m.CreatedAt, nil)
	s.messages[m.ID] = *m
	room.UpdatedAt = m.CreatedAt
	s.chatRooms[room.ID] = room
	return nil
}

func (s *MemoryStore) ListMessages(ctx context.Context, roomID uuid.UUID, limit, offset int) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Message
	for _, m := range s.messages {
		if m.ChatRoomID == roomID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if offset >= len(out) {
		return []models.Message{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) MarkMessagesRead(ctx context.Context, roomID, readerID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, m := range s.messages {
		if m.ChatRoomID == roomID && !m.IsRead && m.SenderID != readerID {
			m.IsRead = true
			s.messages[id] = m
			n++
		}
	}
	return n, nil
}
