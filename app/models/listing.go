package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iommarket/marketplace/internal/pkg/lifecycle"
)

// Listing is a marketplace advert. Status changes must go through the
// lifecycle package's transition check; nothing writes Status directly.
type Listing struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	UUID        string           `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"uuid"`
	UserID      uint             `gorm:"index;not null" json:"user_id"`
	User        *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	DealerID    *uint            `gorm:"index" json:"dealer_id,omitempty"`
	Dealer      *DealerProfile   `gorm:"foreignKey:DealerID" json:"dealer,omitempty"`
	Title       string           `gorm:"type:varchar(255);not null" json:"title"`
	Description string           `gorm:"type:text" json:"description"`
	PricePence  int64            `gorm:"type:bigint;not null;default:0" json:"price_pence"`
	Status      lifecycle.Status `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	Featured    bool             `gorm:"default:false;index" json:"featured"`
	ExpiresAt   *time.Time       `gorm:"type:timestamp;default:null;index" json:"expires_at,omitempty"`
	ViewCount   int              `gorm:"default:0" json:"view_count"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}

// NewListing builds a draft listing owned by the given user.
func NewListing(userID uint, dealerID *uint, title, description string, pricePence int64) *Listing {
	return &Listing{
		UUID:        uuid.New().String(),
		UserID:      userID,
		DealerID:    dealerID,
		Title:       title,
		Description: description,
		PricePence:  pricePence,
		Status:      lifecycle.StatusDraft,
	}
}

// IsPubliclyVisible reports whether the listing is in a state shown to
// visitors. APPROVED is a legacy synonym of LIVE and is normalized first.
func (l *Listing) IsPubliclyVisible() bool {
	return lifecycle.Normalize(l.Status) == lifecycle.StatusLive
}

// FindListingByUUID loads a listing by its public identifier.
func FindListingByUUID(db *gorm.DB, id string) (*Listing, error) {
	var listing Listing
	if err := db.Where("uuid = ?", id).First(&listing).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// ErrListingStatusConflict is returned when a conditional status write finds
// the row no longer in the status the caller validated against.
var ErrListingStatusConflict = errors.New("listing status changed concurrently")
