package models

import (
	"time"

	"gorm.io/gorm"
)

// DealerProfile is the trade-seller identity a subscription attaches to.
type DealerProfile struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	User         *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	BusinessName string         `gorm:"type:varchar(200);not null" json:"business_name" validate:"required,min=2,max=200"`
	Phone        string         `gorm:"type:varchar(30);default:''" json:"phone" validate:"max=30"`
	Website      string         `gorm:"type:varchar(255);default:''" json:"website" validate:"max=255"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
