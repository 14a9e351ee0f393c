package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RolePassenger Role = "passenger"
	RoleDriver    Role = "driver"
	RoleAdmin     Role = "admin"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FullName string    `gorm:"size:255;not null" json:"full_name"`
	Email    string    `gorm:"size:255;not null;unique" json:"email"`
	Phone    string    `gorm:"size:20;not null;unique" json:"phone"`
	Password string    `gorm:"not null" json:"-"`
	Role     Role      `gorm:"size:20;not null;default:'passenger'" json:"role"`

	// IsStaff is the administrative override capability.
	IsStaff  bool `gorm:"default:false" json:"is_staff"`
	IsActive bool `gorm:"default:true" json:"is_active"`

	AverageRating float64 `gorm:"type:numeric(3,2);default:0" json:"average_rating"`
	IsWarned      bool    `gorm:"default:false" json:"is_warned"`
	IsRestricted  bool    `gorm:"default:false" json:"is_restricted"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u User) HasOverride() bool {
	return u.IsStaff
}

func (u User) IsDriver() bool {
	return u.Role == RoleDriver
}

// DisplayName falls back to the email local part when no name was given.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	for i, r := range u.Email {
		if r == '@' {
			return u.Email[:i]
		}
	}
	return u.Email
}
