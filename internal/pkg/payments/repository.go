package payments

import (
	"time"

	"github.com/iommarket/marketplace/app/models"
	"github.com/iommarket/marketplace/app/repository"
	"github.com/iommarket/marketplace/internal/pkg/lifecycle"
)

// gormRepository adapts the shared repositories to the processor's surface.
type gormRepository struct {
	repos *repository.Repositories
}

// NewRepository wraps the shared repository set for the processor.
func NewRepository(repos *repository.Repositories) Repository {
	return &gormRepository{repos: repos}
}

func (r *gormRepository) GetListingByID(id uint) (*models.Listing, error) {
	return r.repos.Listing.GetByID(id)
}

func (r *gormRepository) UpdateListingStatusIf(id uint, from, to lifecycle.Status, expiresAt *time.Time) error {
	return r.repos.Listing.UpdateStatusIf(id, from, to, expiresAt)
}

func (r *gormRepository) SetListingFeatured(id uint, featured bool) error {
	return r.repos.Listing.SetFeatured(id, featured)
}

func (r *gormRepository) CreatePaymentIfNotExists(payment *models.Payment) (bool, error) {
	return r.repos.Payment.CreateIfNotExists(payment)
}

func (r *gormRepository) MarkPaymentsRefunded(stripePaymentID string) (int64, error) {
	return r.repos.Payment.MarkRefundedByStripePaymentID(stripePaymentID)
}

func (r *gormRepository) UpsertSubscription(sub *models.Subscription) error {
	return r.repos.Subscription.Upsert(sub)
}

func (r *gormRepository) GetSubscriptionByStripeID(stripeSubscriptionID string) (*models.Subscription, error) {
	return r.repos.Subscription.GetByStripeSubscriptionID(stripeSubscriptionID)
}

func (r *gormRepository) UpdateSubscriptionStatus(stripeSubscriptionID, status string, currentPeriodEnd *time.Time) error {
	return r.repos.Subscription.UpdateStatus(stripeSubscriptionID, status, currentPeriodEnd)
}
