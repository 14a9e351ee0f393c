package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/anjiri1684/ridepool/models"
	"github.com/anjiri1684/ridepool/repositories"
	"github.com/anjiri1684/ridepool/services"
)

// ReminderJob tells passengers their confirmed ride leaves soon. Each booking
// is reminded at most once.
type ReminderJob struct {
	Store    repositories.BookingStore
	Notifier services.Notifier
	Lead     time.Duration
	Location *time.Location
	Now      func() time.Time
}

func (j *ReminderJob) Run() {
	if _, err := j.SendDepartureReminders(context.Background()); err != nil {
		log.Printf("🔥 Error sending departure reminders: %v", err)
	}
}

func (j *ReminderJob) SendDepartureReminders(ctx context.Context) (int, error) {
	log.Println("Running job: SendDepartureReminders...")

	now := time.Now()
	if j.Now != nil {
		now = j.Now()
	}
	loc := j.Location
	if loc == nil {
		loc = time.UTC
	}

	bookings, err := j.Store.ListBookingsDepartingBetween(ctx, models.BookingConfirmed, now, now.Add(j.Lead))
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, booking := range bookings {
		if booking.Ride == nil {
			continue
		}
		// Marked before notifying: a failure in between drops the reminder
		// instead of repeating it.
		if err := j.Store.MarkReminderSent(ctx, booking.ID, now); err != nil {
			log.Printf("🔥 Could not mark reminder for booking %s: %v", booking.ID, err)
			continue
		}
		j.Notifier.Notify(ctx, booking.PassengerID,
			"Ride Reminder 🚗",
			fmt.Sprintf("Your ride %s leaves at %s. Please be on time.",
				booking.Ride.Route(), booking.Ride.DepartureTime.In(loc).Format("15:04")),
			map[string]string{
				"type":       "ride_reminder",
				"booking_id": booking.ID.String(),
				"ride_id":    booking.RideID.String(),
			},
		)
		sent++
	}
	if sent > 0 {
		log.Printf("✅ Sent %d departure reminder(s)", sent)
	}
	return sent, nil
}
