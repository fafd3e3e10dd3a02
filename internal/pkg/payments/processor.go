package payments

import (
	"errors"
	"log"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"

	"github.com/iommarket/marketplace/app/models"
	"github.com/iommarket/marketplace/internal/pkg/lifecycle"
)

// Repository is the persistence surface the processor needs. It is satisfied
// by the GORM-backed adapter in this package and by in-memory fakes in tests.
type Repository interface {
	GetListingByID(id uint) (*models.Listing, error)
	UpdateListingStatusIf(id uint, from, to lifecycle.Status, expiresAt *time.Time) error
	SetListingFeatured(id uint, featured bool) error

	CreatePaymentIfNotExists(payment *models.Payment) (bool, error)
	MarkPaymentsRefunded(stripePaymentID string) (int64, error)

	UpsertSubscription(sub *models.Subscription) error
	GetSubscriptionByStripeID(stripeSubscriptionID string) (*models.Subscription, error)
	UpdateSubscriptionStatus(stripeSubscriptionID, status string, currentPeriodEnd *time.Time) error
}

// Processor applies verified provider events to local state. Every handler is
// idempotent under redelivery: payments dedup on the payment intent id,
// subscriptions upsert on the subscription id, and refunds are absolute
// status writes.
type Processor struct {
	repo Repository
}

// NewProcessor creates a processor over the given repository.
func NewProcessor(repo Repository) *Processor {
	return &Processor{repo: repo}
}

// Process dispatches a verified provider event. Unknown event types return
// nil so the provider does not redeliver them. Persistence failures are
// returned to the caller, which must answer non-2xx so the provider retries.
func (p *Processor) Process(event stripe.Event) error {
	parsed, err := ParseEvent(event)
	if err != nil {
		return err
	}
	switch evt := parsed.(type) {
	case *CheckoutCompleted:
		return p.HandleCheckoutCompleted(evt)
	case *SubscriptionChanged:
		return p.HandleSubscriptionChanged(evt)
	case *SubscriptionDeleted:
		return p.HandleSubscriptionDeleted(evt)
	case *ChargeRefunded:
		return p.HandleChargeRefunded(evt)
	case nil:
		log.Printf("payments: ignoring event type %s", event.Type)
		return nil
	}
	return nil
}

// HandleCheckoutCompleted routes a completed checkout by its purpose tag.
func (p *Processor) HandleCheckoutCompleted(evt *CheckoutCompleted) error {
	switch evt.Purpose {
	case PurposeListingPayment:
		return p.handleListingPayment(evt)
	case PurposeFeaturedUpgrade:
		return p.handleFeaturedUpgrade(evt)
	case PurposeDealerSubscription:
		return p.handleDealerSubscription(evt)
	}
	// A session without a recognized purpose tag was not created by this
	// system. Acknowledge it so the provider stops redelivering.
	log.Printf("payments: ignoring checkout completion with purpose %q", evt.Purpose)
	return nil
}

func (p *Processor) handleListingPayment(evt *CheckoutCompleted) error {
	if evt.PaymentIntentID == "" || evt.ListingID == 0 {
		// A session this system created always carries both; anything else
		// cannot be reconciled and redelivery would not change that.
		log.Printf("payments: skipping listing payment session %s missing payment intent or listing id", evt.SessionID)
		return nil
	}

	created, err := p.repo.CreatePaymentIfNotExists(&models.Payment{
		ListingID:       evt.ListingID,
		StripePaymentID: evt.PaymentIntentID,
		IdempotencyKey:  "checkout-" + evt.SessionID,
		AmountPence:     evt.AmountPence,
		Currency:        evt.Currency,
		Status:          models.PaymentStatusSucceeded,
	})
	if err != nil {
		return err
	}
	if !created {
		// Duplicate delivery: the first processing already ran.
		return nil
	}

	listing, err := p.repo.GetListingByID(evt.ListingID)
	if err != nil {
		return err
	}
	from := lifecycle.Normalize(listing.Status)
	switch {
	case lifecycle.IsValidTransition(from, lifecycle.StatusPending):
		return p.repo.UpdateListingStatusIf(listing.ID, listing.Status, lifecycle.StatusPending, nil)
	case from == lifecycle.StatusExpired:
		// Renewal payment: an expired listing re-enters review by walking the
		// renewal edge and then the submit edge, each conditionally.
		if err := p.repo.UpdateListingStatusIf(listing.ID, listing.Status, lifecycle.StatusDraft, nil); err != nil {
			return err
		}
		return p.repo.UpdateListingStatusIf(listing.ID, lifecycle.StatusDraft, lifecycle.StatusPending, nil)
	default:
		return &PolicyViolationError{ListingID: listing.ID, From: from, To: lifecycle.StatusPending}
	}
}

func (p *Processor) handleFeaturedUpgrade(evt *CheckoutCompleted) error {
	if evt.PaymentIntentID == "" || evt.ListingID == 0 {
		log.Printf("payments: skipping featured upgrade session %s missing payment intent or listing id", evt.SessionID)
		return nil
	}

	created, err := p.repo.CreatePaymentIfNotExists(&models.Payment{
		ListingID:       evt.ListingID,
		StripePaymentID: evt.PaymentIntentID,
		IdempotencyKey:  "featured-" + evt.SessionID,
		AmountPence:     evt.AmountPence,
		Currency:        evt.Currency,
		Status:          models.PaymentStatusSucceeded,
	})
	if err != nil {
		return err
	}
	if !created {
		return nil
	}
	// Featured is a flag, not a lifecycle state; it flips regardless of the
	// listing's current status.
	return p.repo.SetListingFeatured(evt.ListingID, true)
}

func (p *Processor) handleDealerSubscription(evt *CheckoutCompleted) error {
	if evt.SubscriptionID == "" || evt.DealerID == 0 {
		log.Printf("payments: skipping dealer subscription session %s missing subscription or dealer id", evt.SessionID)
		return nil
	}
	// Upsert rather than create-if-absent: later status events for the same
	// subscription must update this row, never be rejected as duplicates.
	return p.repo.UpsertSubscription(&models.Subscription{
		DealerID:             evt.DealerID,
		StripeSubscriptionID: evt.SubscriptionID,
		Status:               models.SubscriptionStatusActive,
	})
}

// HandleSubscriptionChanged updates a tracked subscription's status. Events
// for subscription ids this system never recorded are skipped: they belong
// to out-of-band or test subscriptions, not to us.
func (p *Processor) HandleSubscriptionChanged(evt *SubscriptionChanged) error {
	_, err := p.repo.GetSubscriptionByStripeID(evt.SubscriptionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("payments: skipping status change for untracked subscription %s", evt.SubscriptionID)
		return nil
	}
	if err != nil {
		return err
	}
	return p.repo.UpdateSubscriptionStatus(evt.SubscriptionID, evt.Status, evt.CurrentPeriodEnd)
}

// HandleSubscriptionDeleted marks a tracked subscription cancelled. Untracked
// ids are skipped like status changes.
func (p *Processor) HandleSubscriptionDeleted(evt *SubscriptionDeleted) error {
	_, err := p.repo.GetSubscriptionByStripeID(evt.SubscriptionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("payments: skipping deletion of untracked subscription %s", evt.SubscriptionID)
		return nil
	}
	if err != nil {
		return err
	}
	return p.repo.UpdateSubscriptionStatus(evt.SubscriptionID, models.SubscriptionStatusCancelled, nil)
}

// HandleChargeRefunded marks every payment recorded under the refunded
// charge's payment intent. A refund for an intent outside this system's
// records is not an error.
func (p *Processor) HandleChargeRefunded(evt *ChargeRefunded) error {
	if evt.PaymentIntentID == "" {
		return nil
	}
	n, err := p.repo.MarkPaymentsRefunded(evt.PaymentIntentID)
	if err != nil {
		return err
	}
	if n == 0 {
		log.Printf("payments: refund for unknown payment intent %s", evt.PaymentIntentID)
	}
	return nil
}
