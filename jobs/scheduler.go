package jobs

import (
	"github.com/robfig/cron/v3"
)

// Schedule registers the background jobs on c. Both job types implement
// cron.Job.
func Schedule(c *cron.Cron, reminders *ReminderJob, subscriptions *SubscriptionJob) error {
	if _, err := c.AddJob("*/5 * * * *", reminders); err != nil {
		return err
	}
	if _, err := c.AddJob("@hourly", subscriptions); err != nil {
		return err
	}
	return nil
}
