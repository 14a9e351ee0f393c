package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PlanType string

const (
	PlanPassenger PlanType = "passenger"
	PlanDriver    PlanType = "driver"
)

type Subscription struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	PlanType   PlanType  `gorm:"size:20;not null" json:"plan_type"`
	StartDate  time.Time `gorm:"type:date;not null" json:"start_date"`
	ExpiryDate time.Time `gorm:"type:date;not null" json:"expiry_date"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	IsTrial    bool      `gorm:"default:true" json:"is_trial"`
	AutoRenew  bool      `gorm:"default:true" json:"auto_renew"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Entitled reports whether the subscription still covers the calendar day of now.
func (s Subscription) Entitled(now time.Time) bool {
	return s.IsActive && !Day(s.ExpiryDate).Before(Day(now))
}

func (s Subscription) DaysRemaining(now time.Time) int {
	d := int(Day(s.ExpiryDate).Sub(Day(now)).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func PlanFor(role Role) PlanType {
	if role == RoleDriver {
		return PlanDriver
	}
	return PlanPassenger
}
