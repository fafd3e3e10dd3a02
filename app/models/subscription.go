package models

import "time"

const (
	SubscriptionStatusActive     = "ACTIVE"
	SubscriptionStatusPastDue    = "PAST_DUE"
	SubscriptionStatusCancelled  = "CANCELLED"
	SubscriptionStatusIncomplete = "INCOMPLETE"
)

// Subscription mirrors a dealer's Stripe subscription. Rows are upserted by
// the Stripe subscription id so checkout completion and later status events
// stay idempotent under redelivery.
type Subscription struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	DealerID             uint           `gorm:"index;not null" json:"dealer_id"`
	Dealer               *DealerProfile `gorm:"foreignKey:DealerID" json:"dealer,omitempty"`
	StripeSubscriptionID string         `gorm:"type:varchar(191);not null;uniqueIndex" json:"stripe_subscription_id"`
	StripePriceID        string         `gorm:"type:varchar(191);not null;default:''" json:"stripe_price_id"`
	Status               string         `gorm:"type:varchar(20);not null;default:'INCOMPLETE';index" json:"status"`
	CurrentPeriodEnd     *time.Time     `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CreatedAt            time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsEntitling reports whether the subscription currently grants dealer
// features. Past-due keeps access during the grace window.
func (s *Subscription) IsEntitling() bool {
	return s.Status == SubscriptionStatusActive || s.Status == SubscriptionStatusPastDue
}
