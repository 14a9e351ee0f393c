package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anjiri1684/ridepool/apperrors"
	"github.com/anjiri1684/ridepool/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the postgres-backed Store.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Conflict("email or phone already registered", err)
		}
		return err
	}
	return nil
}

func (s *GormStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound)
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound)
	}
	return &user, nil
}

func (s *GormStore) RecomputeTrust(ctx context.Context, userID uuid.UUID, eval func(scores []int) TrustFlags) (previous, current TrustFlags, err error) {
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", userID).Error; err != nil {
			return notFound(err, apperrors.ErrUserNotFound)
		}
		previous = flagsOf(&user)

		var scores []int
		if err := tx.Model(&models.Rating{}).
			Where("reviewee_id = ?", userID).
			Order("created_at asc").
			Pluck("score", &scores).Error; err != nil {
			return err
		}
		current = eval(scores)

		return tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"average_rating": current.AverageRating,
			"is_warned":      current.IsWarned,
			"is_restricted":  current.IsRestricted,
		}).Error
	})
	return previous, current, err
}

func (s *GormStore) GetDriverProfile(ctx context.Context, userID uuid.UUID) (*models.DriverProfile, error) {
	var profile models.DriverProfile
	if err := s.DB.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, notFound(err, apperrors.ErrProfileNotFound)
	}
	return &profile, nil
}

func (s *GormStore) SaveDriverProfile(ctx context.Context, profile *models.DriverProfile) error {
	return s.DB.WithContext(ctx).Save(profile).Error
}

func (s *GormStore) GetSubscription(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error; err != nil {
		return nil, notFound(err, apperrors.ErrSubscriptionNotFound)
	}
	return &sub, nil
}

func (s *GormStore) SaveSubscription(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == uuid.Nil {
		return s.DB.WithContext(ctx).Create(sub).Error
	}
	return s.DB.WithContext(ctx).Save(sub).Error
}

func (s *GormStore) DeactivateExpiredSubscriptions(ctx context.Context, today time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Subscription{}).
		Where("is_active = ? AND expiry_date < ?", true, models.Day(today)).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

func (s *GormStore) CreateRide(ctx context.Context, ride *models.Ride) error {
	return s.DB.WithContext(ctx).Omit(clause.Associations).Create(ride).Error
}

func (s *GormStore) GetRide(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	var ride models.Ride
	if err := s.DB.WithContext(ctx).First(&ride, "id = ?", id).Error; err != nil {
		return nil, notFound(err, apperrors.ErrRideNotFound)
	}
	return &ride, nil
}

func (s *GormStore) SearchRides(ctx context.Context, filter RideFilter) ([]models.Ride, error) {
	q := s.DB.WithContext(ctx).
		Where("status = ? AND departure_time >= ? AND available_seats > 0", string(models.RideActive), filter.DepartingFrom)
	if filter.StartLocation != "" {
		q = q.Where("start_location ILIKE ?", "%"+filter.StartLocation+"%")
	}
	if filter.Destination != "" {
		q = q.Where("destination ILIKE ?", "%"+filter.Destination+"%")
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var rides []models.Ride
	if err := q.Order("departure_time asc").Find(&rides).Error; err != nil {
		return nil, err
	}
	return rides, nil
}

func (s *GormStore) ListRidesByDriver(ctx context.Context, driverID uuid.UUID) ([]models.Ride, error) {
	var rides []models.Ride
	err := s.DB.WithContext(ctx).
		Preload("Bookings", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Where("driver_id = ?", driverID).
		Order("departure_time desc").
		Find(&rides).Error
	return rides, err
}

func (s *GormStore) TransitionRide(ctx context.Context, id uuid.UUID, from, to models.RideStatus) (*models.Ride, error) {
	var ride models.Ride
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Ride{}).
			Where("id = ? AND status = ?", id, string(from)).
			Update("status", string(to))
		if res.Error != nil {
			return res.Error
		}
		if err := tx.First(&ride, "id = ?", id).Error; err != nil {
			return notFound(err, apperrors.ErrRideNotFound)
		}
		if res.RowsAffected == 0 {
			return apperrors.InvalidTransition("ride", string(ride.Status), string(to))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ride, nil
}

// ReserveSeats runs the reservation window in one transaction. The
// conditional UPDATE takes the ride's row lock, so concurrent reservations on
// the same ride queue behind each other while other rides proceed in parallel.
func (s *GormStore) ReserveSeats(ctx context.Context, r Reservation) (*models.Booking, error) {
	var booking models.Booking
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(
			`UPDATE rides SET available_seats = available_seats - ?, updated_at = ? `+
				`WHERE id = ? AND driver_id <> ? AND status = ? AND departure_time > ? AND available_seats >= ?`,
			r.Seats, r.Now, r.RideID, r.PassengerID, string(models.RideActive), r.Now, r.Seats,
		)
		if res.Error != nil {
			return res.Error
		}

		var ride models.Ride
		if err := tx.First(&ride, "id = ?", r.RideID).Error; err != nil {
			return notFound(err, apperrors.ErrRideNotFound)
		}
		if res.RowsAffected == 0 {
			if ride.DriverID == r.PassengerID {
				return apperrors.ErrOwnRide
			}
			if err := ride.CheckBookable(r.Seats, r.Now); err != nil {
				return err
			}
			return apperrors.ErrInsufficientSeats
		}

		total, err := ride.PricePerSeat.Mul(r.Seats)
		if err != nil {
			return apperrors.Validation("booking total is out of range")
		}
		booking = models.Booking{
			RideID:        ride.ID,
			PassengerID:   r.PassengerID,
			SeatsBooked:   r.Seats,
			TotalPrice:    total,
			Status:        models.BookingPending,
			PaymentStatus: r.PaymentStatus,
		}
		if err := tx.Omit(clause.Associations).Create(&booking).Error; err != nil {
			return err
		}
		booking.Ride = &ride
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *GormStore) TransitionBooking(ctx context.Context, t BookingTransition) (*models.Booking, error) {
	var booking models.Booking
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": string(t.To)}
		if t.PaymentStatus != "" {
			updates["payment_status"] = string(t.PaymentStatus)
		}
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status IN ?", t.BookingID, statusStrings(t.From)).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if err := tx.First(&booking, "id = ?", t.BookingID).Error; err != nil {
			return notFound(err, apperrors.ErrBookingNotFound)
		}
		if res.RowsAffected == 0 {
			return apperrors.InvalidTransition("booking", string(booking.Status), string(t.To))
		}

		if t.ReleaseSeats {
			if err := tx.Exec(
				`UPDATE rides SET available_seats = available_seats + ?, updated_at = ? WHERE id = ?`,
				booking.SeatsBooked, time.Now(), booking.RideID,
			).Error; err != nil {
				return err
			}
		}

		var ride models.Ride
		if err := tx.First(&ride, "id = ?", booking.RideID).Error; err != nil {
			return notFound(err, apperrors.ErrRideNotFound)
		}
		booking.Ride = &ride
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *GormStore) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := s.DB.WithContext(ctx).Preload("Ride").First(&booking, "id = ?", id).Error; err != nil {
		return nil, notFound(err, apperrors.ErrBookingNotFound)
	}
	return &booking, nil
}

func (s *GormStore) ListBookingsByRide(ctx context.Context, rideID uuid.UUID, statuses ...models.BookingStatus) ([]models.Booking, error) {
	q := s.DB.WithContext(ctx).Preload("Ride").Where("ride_id = ?", rideID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statusStrings(statuses))
	}
	var bookings []models.Booking
	err := q.Order("created_at asc").Find(&bookings).Error
	return bookings, err
}

func (s *GormStore) ListBookingsByPassenger(ctx context.Context, passengerID uuid.UUID) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.DB.WithContext(ctx).
		Preload("Ride").
		Where("passenger_id = ?", passengerID).
		Order("created_at desc").
		Find(&bookings).Error
	return bookings, err
}

func (s *GormStore) ListBookingsForDriver(ctx context.Context, driverID uuid.UUID) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.DB.WithContext(ctx).
		Preload("Ride").
		Joins("JOIN rides ON rides.id = bookings.ride_id").
		Where("rides.driver_id = ?", driverID).
		Order("bookings.created_at desc").
		Find(&bookings).Error
	return bookings, err
}

func (s *GormStore) ListBookingsDepartingBetween(ctx context.Context, status models.BookingStatus, from, to time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.DB.WithContext(ctx).
		Preload("Ride").
		Joins("JOIN rides ON rides.id = bookings.ride_id").
		Where("bookings.status = ? AND bookings.reminder_sent_at IS NULL AND rides.departure_time BETWEEN ? AND ?",
			string(status), from, to).
		Find(&bookings).Error
	return bookings, err
}

func (s *GormStore) MarkReminderSent(ctx context.Context, bookingID uuid.UUID, at time.Time) error {
	return s.DB.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Update("reminder_sent_at", at).Error
}

func (s *GormStore) CreateRating(ctx context.Context, rating *models.Rating) error {
	if err := s.DB.WithContext(ctx).Create(rating).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrDuplicateRating
		}
		return err
	}
	return nil
}

func (s *GormStore) ListScoresForReviewee(ctx context.Context, revieweeID uuid.UUID) ([]int, error) {
	var scores []int
	err := s.DB.WithContext(ctx).Model(&models.Rating{}).
		Where("reviewee_id = ?", revieweeID).
		Order("created_at asc").
		Pluck("score", &scores).Error
	return scores, err
}

func (s *GormStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	return s.DB.WithContext(ctx).Create(n).Error
}

func (s *GormStore) ListNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Notification, error) {
	var out []models.Notification
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, err
}

func (s *GormStore) MarkNotificationRead(ctx context.Context, userID, id uuid.UUID) error {
	res := s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotificationNotFound
	}
	return nil
}

func (s *GormStore) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (s *GormStore) ListDriverProfiles(ctx context.Context, status models.VerificationStatus) ([]models.DriverProfile, error) {
	var profiles []models.DriverProfile
	err := s.DB.WithContext(ctx).
		Preload("User").
		Where("verification_status = ?", string(status)).
		Order("updated_at asc").
		Find(&profiles).Error
	return profiles, err
}

func (s *GormStore) ListRatingsForReviewee(ctx context.Context, revieweeID uuid.UUID) ([]models.Rating, error) {
	var ratings []models.Rating
	err := s.DB.WithContext(ctx).
		Preload("Reviewer").
		Where("reviewee_id = ?", revieweeID).
		Order("created_at desc").
		Find(&ratings).Error
	return ratings, err
}

func (s *GormStore) GetOrCreateChatRoom(ctx context.Context, room *models.ChatRoom) (bool, error) {
	db := s.DB.WithContext(ctx)
	var existing models.ChatRoom
	err := db.Where("booking_id = ?", room.BookingID).First(&existing).Error
	if err == nil {
		*room = existing
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if err := db.Omit(clause.Associations).Create(room).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, err
		}
		// Lost the race with the other member opening the same room.
		if err := db.Where("booking_id = ?", room.BookingID).First(&existing).Error; err != nil {
			return false, err
		}
		*room = existing
		return false, nil
	}
	return true, nil
}

func (s *GormStore) GetChatRoom(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := s.DB.WithContext(ctx).First(&room, "id = ?", id).Error; err != nil {
		return nil, notFound(err, apperrors.ErrChatRoomNotFound)
	}
	return &room, nil
}

func (s *GormStore) ListChatRooms(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error) {
	db := s.DB.WithContext(ctx)
	var rooms []models.ChatRoom
	if err := db.
		Preload("Booking.Ride").
		Where("driver_id = ? OR passenger_id = ?", userID, userID).
		Order("updated_at desc").
		Find(&rooms).Error; err != nil {
		return nil, err
	}

	for i := range rooms {
		var last models.Message
		res := db.Where("chat_room_id = ?", rooms[i].ID).Order("created_at desc").Limit(1).Find(&last)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected > 0 {
			rooms[i].LastMessage = &last
		}
		if err := db.Model(&models.Message{}).
			Where("chat_room_id = ? AND is_read = ? AND sender_id <> ?", rooms[i].ID, false, userID).
			Count(&rooms[i].UnreadCount).Error; err != nil {
			return nil, err
		}
	}
	return rooms, nil
}

func (s *GormStore) CreateMessage(ctx context.Context, m *models.Message) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		res := tx.Model(&models.ChatRoom{}).Where("id = ?", m.ChatRoomID).Update("updated_at", m.CreatedAt)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrChatRoomNotFound
		}
		return nil
	})
}

func (s *GormStore) ListMessages(ctx context.Context, roomID uuid.UUID, limit, offset int) ([]models.Message, error) {
	var out []models.Message
	err := s.DB.WithContext(ctx).
		Where("chat_room_id = ?", roomID).
		Order("created_at asc").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, err
}

func (s *GormStore) MarkMessagesRead(ctx context.Context, roomID, readerID uuid.UUID) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Message{}).
		Where("chat_room_id = ? AND is_read = ? AND sender_id <> ?", roomID, false, readerID).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
