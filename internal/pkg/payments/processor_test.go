package payments

import (
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/iommarket/marketplace/app/models"
	"github.com/iommarket/marketplace/internal/pkg/lifecycle"
)

// fakeRepo is an in-memory Repository for driving the processor in tests.
type fakeRepo struct {
	listings map[uint]*models.Listing
	payments map[string]*models.Payment
	subs     map[string]*models.Subscription

	failCreatePayment error
	failUpdateStatus  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		listings: make(map[uint]*models.Listing),
		payments: make(map[string]*models.Payment),
		subs:     make(map[string]*models.Subscription),
	}
}

func (f *fakeRepo) GetListingByID(id uint) (*models.Listing, error) {
	l, ok := f.listings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return l, nil
}

func (f *fakeRepo) UpdateListingStatusIf(id uint, from, to lifecycle.Status, expiresAt *time.Time) error {
	if f.failUpdateStatus != nil {
		return f.failUpdateStatus
	}
	l, ok := f.listings[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if l.Status != from {
		return models.ErrListingStatusConflict
	}
	l.Status = to
	if expiresAt != nil {
		l.ExpiresAt = expiresAt
	}
	return nil
}

func (f *fakeRepo) SetListingFeatured(id uint, featured bool) error {
	l, ok := f.listings[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	l.Featured = featured
	return nil
}

func (f *fakeRepo) CreatePaymentIfNotExists(payment *models.Payment) (bool, error) {
	if f.failCreatePayment != nil {
		return false, f.failCreatePayment
	}
	if _, ok := f.payments[payment.StripePaymentID]; ok {
		return false, nil
	}
	f.payments[payment.StripePaymentID] = payment
	return true, nil
}

func (f *fakeRepo) MarkPaymentsRefunded(stripePaymentID string) (int64, error) {
	p, ok := f.payments[stripePaymentID]
	if !ok {
		return 0, nil
	}
	p.Status = models.PaymentStatusRefunded
	return 1, nil
}

func (f *fakeRepo) UpsertSubscription(sub *models.Subscription) error {
	if existing, ok := f.subs[sub.StripeSubscriptionID]; ok {
		existing.DealerID = sub.DealerID
		existing.Status = sub.Status
		return nil
	}
	f.subs[sub.StripeSubscriptionID] = sub
	return nil
}

func (f *fakeRepo) GetSubscriptionByStripeID(id string) (*models.Subscription, error) {
	s, ok := f.subs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (f *fakeRepo) UpdateSubscriptionStatus(id, status string, currentPeriodEnd *time.Time) error {
	s, ok := f.subs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Status = status
	if currentPeriodEnd != nil {
		s.CurrentPeriodEnd = currentPeriodEnd
	}
	return nil
}

func listingPaymentEvent(listingID uint) *CheckoutCompleted {
	return &CheckoutCompleted{
		Purpose:         PurposeListingPayment,
		SessionID:       "cs_1",
		PaymentIntentID: "pi_123",
		ListingID:       listingID,
		AmountPence:     499,
		Currency:        "gbp",
	}
}

func TestListingPayment_MovesDraftToPending(t *testing.T) {
	repo := newFakeRepo()
	repo.listings[1] = &models.Listing{ID: 1, Status: lifecycle.StatusDraft}
	p := NewProcessor(repo)

	if err := p.HandleCheckoutCompleted(listingPaymentEvent(1)); err != nil {
		t.Fatalf("HandleCheckoutCompleted: %v", err)
	}

	if got := repo.listings[1].Status; got != lifecycle.StatusPending {
		t.Fatalf("listing status = %s, want PENDING", got)
	}
	pay, ok := repo.payments["pi_123"]
	if !ok {
		t.Fatalf("payment not recorded")
	}
	if pay.Status != models.PaymentStatusSucceeded {
		t.Fatalf("payment status = %s, want SUCCEEDED", pay.Status)
	}
	if pay.AmountPence != 499 {
		t.Fatalf("payment amount = %d, want 499", pay.AmountPence)
	}
	if pay.IdempotencyKey != "checkout-cs_1" {
		t.Fatalf("idempotency key = %q, want checkout-cs_1", pay.IdempotencyKey)
	}
}

func TestListingPayment_MissingIntentAcknowledged(t *testing.T) {
	repo := newFakeRepo()
	repo.listings[1] = &models.Listing{ID: 1, Status: lifecycle.StatusDraft}
	p := NewProcessor(repo)

	err := p.HandleCheckoutCompleted(&CheckoutCompleted{
		Purpose:   PurposeListingPayment,
		SessionID: "cs_broken",
		ListingID: 1,
	})
	if err != nil {
		t.Fatalf("session without a payment intent must be acknowledged, got %v", err)
	}
	if len(repo.payments) != 0 {
		t.Fatalf("no payment should be recorded")
	}
	if got := repo.listings[1].Status; got != lifecycle.StatusDraft {
		t.Fatalf("listing status = %s, must remain DRAFT", got)
	}
}

func TestListingPayment_DuplicateDeliveryIsNoOp(t *testing.T) {
	repo := newFakeRepo()
	repo.listings[1] = &models.Listing{ID: 1, Status: lifecycle.StatusDraft}
	p := NewProcessor(repo)

	if err := p.HandleCheckoutCompleted(listingPaymentEvent(1)); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := p.HandleCheckoutCompleted(listingPaymentEvent(1)); err != nil {
		t.Fatalf("redelivery must succeed without side effects: %v", err)
	}

	if len(repo.payments) != 1 {
		t.Fatalf("payments = %d, want exactly 1", len(repo.payments))
	}
	if got := repo.listings[1].Status; got != lifecycle.StatusPending {
		t.Fatalf("listing status = %s, want PENDING after redelivery", got)
	}
}

func TestListingPayment_RenewsExpiredListing(t *testing.T) {
	repo := newFakeRepo()
	repo.listings[1] = &models.Listing{ID: 1, Status: lifecycle.StatusExpired}
	p := NewProcessor(repo)

	if err := p.HandleCheckoutCompleted(listingPaymentEvent(1)); err != nil {
		t.Fatalf("HandleCheckoutCompleted: %v", err)
	}
	// The expired listing walks the renewal edge and the submit edge.
	if got := repo.listings[1].Status; got != lifecycle.StatusPending {
		t.Fatalf("listing status = %s, want PENDING", got)
	}
}

func TestListingPayment_TakenDownIsPolicyViolation(t *testing.T) {
	repo := newFakeRepo()
	repo.listings[7] = &models.Listing{ID: 7, Status: lifecycle.StatusTakenDown}
	p := NewProcessor(repo)

	err := p.HandleCheckoutCompleted(listingPaymentEvent(7))
	var pv *PolicyViolationError
	if !errors.As(err, &pv) {
		t.Fatalf("err = %v, want PolicyViolationError", err)
	}
	if pv.ListingID != 7 || pv.To != lifecycle.StatusPending {
		t.Fatalf("unexpected violation detail: %+v", pv)
	}
	if got := repo.listings[7].Status; got != lifecycle.StatusTakenDown {
		t.Fatalf("listing status = %s, must remain TAKEN_DOWN", got)
	}
	// The payment record is kept for operator reconciliation.
	if _, ok := repo.payments["pi_123"]; !ok {
		t.Fatalf("payment should be recorded even when the transition is refused")
	}
}

func TestListingPayment_PersistenceFailurePropagates(t *testing.T) {
	repo := newFakeRepo()
	repo.listings[1] = &models.Listing{ID: 1, Status: lifecycle.StatusDraft}
	repo.failCreatePayment = errors.New("db down")
	p := NewProcessor(repo)

	if err := p.HandleCheckoutCompleted(listingPaymentEvent(1)); err == nil {
		t.Fatalf("persistence failure must be surfaced for provider redelivery")
	}
	if got := repo.listings[1].Status; got != lifecycle.StatusDraft {
		t.Fatalf("listing status = %s, must remain DRAFT", got)
	}
}

func TestFeaturedUpgrade_SetsFlagOnce(t *testing.T) {
	repo := newFakeRepo()
	repo.listings[3] = &models.Listing{ID: 3, Status: lifecycle.StatusLive}
	p := NewProcessor(repo)

	evt := &CheckoutCompleted{
		Purpose:         PurposeFeaturedUpgrade,
		SessionID:       "cs_feat",
		PaymentIntentID: "pi_feat",
		ListingID:       3,
		AmountPence:     499,
		Currency:        "gbp",
	}
	if err := p.HandleCheckoutCompleted(evt); err != nil {
		t.Fatalf("HandleCheckoutCompleted: %v", err)
	}
	if !repo.listings[3].Featured {
		t.Fatalf("listing should be featured")
	}
	if got := repo.payments["pi_feat"].IdempotencyKey; got != "featured-cs_feat" {
		t.Fatalf("idempotency key = %q, want featured-cs_feat", got)
	}
	if got := repo.listings[3].Status; got != lifecycle.StatusLive {
		t.Fatalf("featured upgrade must not touch status, got %s", got)
	}

	if err := p.HandleCheckoutCompleted(evt); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(repo.payments) != 1 {
		t.Fatalf("payments = %d, want 1", len(repo.payments))
	}
}

func TestDealerSubscription_UpsertsOnRedelivery(t *testing.T) {
	repo := newFakeRepo()
	p := NewProcessor(repo)

	evt := &CheckoutCompleted{
		Purpose:        PurposeDealerSubscription,
		SubscriptionID: "sub_abc",
		DealerID:       9,
	}
	if err := p.HandleCheckoutCompleted(evt); err != nil {
		t.Fatalf("HandleCheckoutCompleted: %v", err)
	}
	if err := p.HandleCheckoutCompleted(evt); err != nil {
		t.Fatalf("redelivery: %v", err)
	}

	if len(repo.subs) != 1 {
		t.Fatalf("subscriptions = %d, want 1", len(repo.subs))
	}
	sub := repo.subs["sub_abc"]
	if sub.Status != models.SubscriptionStatusActive || sub.DealerID != 9 {
		t.Fatalf("unexpected subscription: %+v", sub)
	}
}

func TestSubscriptionChanged_UntrackedIsSkipped(t *testing.T) {
	repo := newFakeRepo()
	p := NewProcessor(repo)

	err := p.HandleSubscriptionChanged(&SubscriptionChanged{
		SubscriptionID: "sub_unknown",
		Status:         models.SubscriptionStatusPastDue,
	})
	if err != nil {
		t.Fatalf("untracked subscription must be skipped, got %v", err)
	}
	if len(repo.subs) != 0 {
		t.Fatalf("store must be unchanged")
	}
}

func TestSubscriptionChanged_UpdatesTrackedRow(t *testing.T) {
	repo := newFakeRepo()
	repo.subs["sub_abc"] = &models.Subscription{
		StripeSubscriptionID: "sub_abc",
		DealerID:             9,
		Status:               models.SubscriptionStatusActive,
	}
	p := NewProcessor(repo)

	end := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	err := p.HandleSubscriptionChanged(&SubscriptionChanged{
		SubscriptionID:   "sub_abc",
		Status:           models.SubscriptionStatusPastDue,
		CurrentPeriodEnd: &end,
	})
	if err != nil {
		t.Fatalf("HandleSubscriptionChanged: %v", err)
	}

	sub := repo.subs["sub_abc"]
	if sub.Status != models.SubscriptionStatusPastDue {
		t.Fatalf("status = %s, want PAST_DUE", sub.Status)
	}
	if sub.CurrentPeriodEnd == nil || !sub.CurrentPeriodEnd.Equal(end) {
		t.Fatalf("current period end not updated: %v", sub.CurrentPeriodEnd)
	}
}

func TestSubscriptionDeleted_CancelsTrackedRow(t *testing.T) {
	repo := newFakeRepo()
	repo.subs["sub_abc"] = &models.Subscription{
		StripeSubscriptionID: "sub_abc",
		Status:               models.SubscriptionStatusActive,
	}
	p := NewProcessor(repo)

	if err := p.HandleSubscriptionDeleted(&SubscriptionDeleted{SubscriptionID: "sub_abc"}); err != nil {
		t.Fatalf("HandleSubscriptionDeleted: %v", err)
	}
	if got := repo.subs["sub_abc"].Status; got != models.SubscriptionStatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", got)
	}

	if err := p.HandleSubscriptionDeleted(&SubscriptionDeleted{SubscriptionID: "sub_gone"}); err != nil {
		t.Fatalf("untracked deletion must be skipped, got %v", err)
	}
}

func TestChargeRefunded(t *testing.T) {
	repo := newFakeRepo()
	repo.payments["pi_123"] = &models.Payment{
		StripePaymentID: "pi_123",
		Status:          models.PaymentStatusSucceeded,
	}
	p := NewProcessor(repo)

	if err := p.HandleChargeRefunded(&ChargeRefunded{PaymentIntentID: "pi_123"}); err != nil {
		t.Fatalf("HandleChargeRefunded: %v", err)
	}
	if got := repo.payments["pi_123"].Status; got != models.PaymentStatusRefunded {
		t.Fatalf("status = %s, want REFUNDED", got)
	}

	if err := p.HandleChargeRefunded(&ChargeRefunded{PaymentIntentID: "pi_other"}); err != nil {
		t.Fatalf("refund for unknown intent must not error, got %v", err)
	}
}

func TestCheckoutCompleted_UnknownPurposeIgnored(t *testing.T) {
	repo := newFakeRepo()
	p := NewProcessor(repo)

	err := p.HandleCheckoutCompleted(&CheckoutCompleted{
		Purpose:         "gift_card",
		PaymentIntentID: "pi_x",
	})
	if err != nil {
		t.Fatalf("unrecognized purpose must be acknowledged, got %v", err)
	}
	if len(repo.payments) != 0 {
		t.Fatalf("no payment should be recorded")
	}
}
