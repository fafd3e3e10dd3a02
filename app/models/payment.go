package models

import "time"

const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusSucceeded = "SUCCEEDED"
	PaymentStatusFailed    = "FAILED"
	PaymentStatusRefunded  = "REFUNDED"
)

// Payment records a completed Stripe payment for a listing. The Stripe
// payment intent id is the idempotency key: webhook redeliveries must never
// produce a second row for the same intent.
type Payment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ListingID       uint      `gorm:"index;not null" json:"listing_id"`
	Listing         *Listing  `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	StripePaymentID string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"stripe_payment_id"`
	IdempotencyKey  string    `gorm:"type:varchar(191);not null;default:''" json:"idempotency_key"`
	AmountPence     int64     `gorm:"type:bigint;not null;default:0" json:"amount_pence"`
	Currency        string    `gorm:"type:varchar(3);not null;default:'gbp'" json:"currency"`
	Status          string    `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
