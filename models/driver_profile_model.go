package models

import (
	"time"

	"github.com/google/uuid"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

type DriverProfile struct {
	UserID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	NationalID    string    `gorm:"size:20;not null" json:"national_id"`
	DriverLicense string    `gorm:"size:50;not null" json:"driver_license"`
	CarModel      string    `gorm:"size:100;not null" json:"car_model"`
	PlateNumber   string    `gorm:"size:20;not null" json:"plate_number"`
	Seats         int       `gorm:"not null;default:4" json:"seats"`

	IsVerified         bool               `gorm:"default:false" json:"is_verified"`
	VerificationStatus VerificationStatus `gorm:"size:20;not null;default:'pending'" json:"verification_status"`
	VerificationNotes  *string            `gorm:"type:text" json:"verification_notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// AdminDriverProfile is provisioned for staff accounts that post rides
// through the administrative override.
func AdminDriverProfile(userID uuid.UUID) DriverProfile {
	return DriverProfile{
		UserID:             userID,
		NationalID:         "ADMIN",
		DriverLicense:      "ADMIN",
		CarModel:           "Admin Vehicle",
		PlateNumber:        "ADMIN",
		Seats:              4,
		IsVerified:         true,
		VerificationStatus: VerificationApproved,
	}
}
