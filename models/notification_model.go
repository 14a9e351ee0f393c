package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Notification struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"-"`
	Title     string            `gorm:"size:255;not null" json:"title"`
	Message   string            `gorm:"type:text;not null" json:"message"`
	Data      map[string]string `gorm:"type:text;serializer:json" json:"data,omitempty"`
	IsRead    bool              `gorm:"default:false" json:"is_read"`
	CreatedAt time.Time         `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
