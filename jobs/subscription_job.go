package jobs

import (
	"context"
	"log"

	"github.com/anjiri1684/ridepool/services"
)

type SubscriptionJob struct {
	Subscriptions *services.SubscriptionService
}

func (j *SubscriptionJob) Run() {
	n, err := j.Subscriptions.ExpireDue(context.Background())
	if err != nil {
		log.Printf("🔥 Error expiring subscriptions: %v", err)
		return
	}
	if n > 0 {
		log.Printf("✅ Deactivated %d expired subscription(s)", n)
	}
}
