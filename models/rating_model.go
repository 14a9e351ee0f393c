package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Rating struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BookingID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"booking_id"`
	ReviewerID uuid.UUID `gorm:"type:uuid;not null" json:"reviewer_id"`
	RevieweeID uuid.UUID `gorm:"type:uuid;not null;index" json:"reviewee_id"`
	Score      int       `gorm:"not null" json:"score"`
	Comment    string    `gorm:"type:text" json:"comment"`
	CreatedAt  time.Time `json:"created_at"`

	Reviewer *User `gorm:"foreignKey:ReviewerID" json:"-"`
}

func (r *Rating) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
