package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ReportStatusOpen      = "open"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
)

type ListingReport struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	ListingID     uint           `gorm:"index;not null" json:"listing_id"`
	Listing       *Listing       `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	ReporterEmail string         `gorm:"type:varchar(200);not null" json:"reporter_email" validate:"required,email"`
	Reason        string         `gorm:"type:varchar(50);not null" json:"reason" validate:"required"`
	Details       string         `gorm:"type:text" json:"details" validate:"max=2000"`
	Status        string         `gorm:"type:varchar(20);default:'open'" json:"status"`
	ReporterIPv4  string         `gorm:"type:varchar(15);default:null" json:"-"`
	ReporterIPv6  string         `gorm:"type:varchar(45);default:null" json:"-"`
	ResolvedAt    *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
