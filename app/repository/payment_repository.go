package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iommarket/marketplace/app/models"
)

// paymentRepository implements the PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// CreateIfNotExists inserts the payment unless a row with the same Stripe
// payment id already exists. Returns whether a row was created, so callers
// can treat duplicate webhook deliveries as a no-op success.
func (r *paymentRepository) CreateIfNotExists(payment *models.Payment) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_payment_id"}},
		DoNothing: true,
	}).Create(payment)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// MarkRefundedByStripePaymentID flips every matching payment to REFUNDED and
// reports how many rows matched. Zero matches is not an error: the refund
// may reference a payment this system never recorded.
func (r *paymentRepository) MarkRefundedByStripePaymentID(stripePaymentID string) (int64, error) {
	tx := r.db.Model(&models.Payment{}).
		Where("stripe_payment_id = ?", stripePaymentID).
		Update("status", models.PaymentStatusRefunded)
	return tx.RowsAffected, tx.Error
}

func (r *paymentRepository) ListByListingID(listingID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("listing_id = ?", listingID).Order("created_at DESC").Find(&payments).Error
	return payments, err
}
