package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/iommarket/marketplace/app/models"
	"github.com/iommarket/marketplace/internal/pkg/lifecycle"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	Count() (int64, error)
}

// ListingRepository defines the interface for listing-related database
// operations. UpdateStatusIf is the only way a status reaches the database:
// it re-checks the current status inside the update so a concurrent writer
// cannot slip past the lifecycle legality check.
type ListingRepository interface {
	Create(listing *models.Listing) error
	GetByID(id uint) (*models.Listing, error)
	GetByUUID(uuid string) (*models.Listing, error)
	Update(listing *models.Listing) error
	UpdateStatusIf(id uint, from, to lifecycle.Status, expiresAt *time.Time) error
	SetFeatured(id uint, featured bool) error
	ListByUserID(userID uint, offset, limit int) ([]models.Listing, error)
	ListExpired(now time.Time, limit int) ([]models.Listing, error)
	Count() (int64, error)
	CountByStatus(status lifecycle.Status) (int64, error)
	CountCreatedSince(since time.Time) (int64, error)
}

// PaymentRepository defines the interface for payment records. Creation is
// create-if-absent on the Stripe payment id so webhook redeliveries stay
// idempotent.
type PaymentRepository interface {
	CreateIfNotExists(payment *models.Payment) (bool, error)
	MarkRefundedByStripePaymentID(stripePaymentID string) (int64, error)
	ListByListingID(listingID uint) ([]models.Payment, error)
}

// SubscriptionRepository defines the interface for dealer subscriptions,
// upserted by the Stripe subscription id.
type SubscriptionRepository interface {
	Upsert(sub *models.Subscription) error
	GetByStripeSubscriptionID(stripeSubscriptionID string) (*models.Subscription, error)
	UpdateStatus(stripeSubscriptionID, status string, currentPeriodEnd *time.Time) error
	ListByDealerID(dealerID uint) ([]models.Subscription, error)
}

// SettingRepository defines the interface for persisted site settings
type SettingRepository interface {
	GetAll() ([]models.Setting, error)
	GetValue(key string) (string, error)
	SetValue(key, value, valueType string) error
	Delete(key string) error
}

// DealerRepository defines the interface for dealer profiles
type DealerRepository interface {
	Create(dealer *models.DealerProfile) error
	GetByID(id uint) (*models.DealerProfile, error)
	GetByUserID(userID uint) (*models.DealerProfile, error)
	Update(dealer *models.DealerProfile) error
}

// ReportRepository defines the interface for listing reports
type ReportRepository interface {
	Create(report *models.ListingReport) error
	ListOpen(offset, limit int) ([]models.ListingReport, error)
	Resolve(id uint, status string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Listing      ListingRepository
	Payment      PaymentRepository
	Subscription SubscriptionRepository
	Setting      SettingRepository
	Dealer       DealerRepository
	Report       ReportRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Listing:      NewListingRepository(db),
		Payment:      NewPaymentRepository(db),
		Subscription: NewSubscriptionRepository(db),
		Setting:      NewSettingRepository(db),
		Dealer:       NewDealerRepository(db),
		Report:       NewReportRepository(db),
	}
}
