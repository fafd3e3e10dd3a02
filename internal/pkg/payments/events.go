package payments

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	stripe "github.com/stripe/stripe-go/v82"

	"github.com/iommarket/marketplace/app/models"
)

// CheckoutCompleted is a parsed checkout.session.completed event. Exactly one
// of ListingID/DealerID is meaningful depending on Purpose.
type CheckoutCompleted struct {
	Purpose         string
	SessionID       string
	PaymentIntentID string
	SubscriptionID  string
	ListingID       uint
	DealerID        uint
	AmountPence     int64
	Currency        string
}

// SubscriptionChanged is a parsed customer.subscription.updated event.
type SubscriptionChanged struct {
	SubscriptionID   string
	Status           string
	PriceID          string
	CurrentPeriodEnd *time.Time
}

// SubscriptionDeleted is a parsed customer.subscription.deleted event.
type SubscriptionDeleted struct {
	SubscriptionID string
}

// ChargeRefunded is a parsed charge.refunded event.
type ChargeRefunded struct {
	PaymentIntentID string
}

// ParseEvent converts a verified provider event into one of the typed event
// structs above, or nil for event types this system does not track.
func ParseEvent(event stripe.Event) (interface{}, error) {
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("payments: parse checkout session: %w", err)
		}
		evt := parseCheckoutSession(&session)
		if evt == nil {
			return nil, nil
		}
		return evt, nil
	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("payments: parse subscription: %w", err)
		}
		return &SubscriptionChanged{
			SubscriptionID:   sub.ID,
			Status:           MapSubscriptionStatus(sub.Status),
			PriceID:          subscriptionPriceID(&sub),
			CurrentPeriodEnd: subscriptionPeriodEnd(&sub),
		}, nil
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("payments: parse subscription: %w", err)
		}
		return &SubscriptionDeleted{SubscriptionID: sub.ID}, nil
	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return nil, fmt.Errorf("payments: parse charge: %w", err)
		}
		refund := &ChargeRefunded{}
		if charge.PaymentIntent != nil {
			refund.PaymentIntentID = charge.PaymentIntent.ID
		}
		return refund, nil
	}
	return nil, nil
}

// parseCheckoutSession returns nil for sessions with unusable metadata.
// Redelivering such an event can never succeed, so the caller acknowledges
// and moves on instead of provoking a retry storm.
func parseCheckoutSession(session *stripe.CheckoutSession) *CheckoutCompleted {
	evt := &CheckoutCompleted{
		Purpose:     session.Metadata[MetaPurpose],
		SessionID:   session.ID,
		AmountPence: session.AmountTotal,
		Currency:    string(session.Currency),
	}
	if session.PaymentIntent != nil {
		evt.PaymentIntentID = session.PaymentIntent.ID
	}
	if session.Subscription != nil {
		evt.SubscriptionID = session.Subscription.ID
	}
	if raw := session.Metadata[MetaListingID]; raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			log.Printf("payments: skipping session %s with bad %s metadata %q", session.ID, MetaListingID, raw)
			return nil
		}
		evt.ListingID = uint(id)
	}
	if raw := session.Metadata[MetaDealerID]; raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			log.Printf("payments: skipping session %s with bad %s metadata %q", session.ID, MetaDealerID, raw)
			return nil
		}
		evt.DealerID = uint(id)
	}
	return evt
}

// MapSubscriptionStatus folds the provider's status vocabulary into the local
// enum. Unrecognized values land on INCOMPLETE so an unexpected provider
// state never grants entitlement.
func MapSubscriptionStatus(status stripe.SubscriptionStatus) string {
	switch status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return models.SubscriptionStatusActive
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return models.SubscriptionStatusPastDue
	case stripe.SubscriptionStatusCanceled:
		return models.SubscriptionStatusCancelled
	default:
		return models.SubscriptionStatusIncomplete
	}
}

func subscriptionPriceID(sub *stripe.Subscription) string {
	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return ""
	}
	return sub.Items.Data[0].Price.ID
}

func subscriptionPeriodEnd(sub *stripe.Subscription) *time.Time {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil
	}
	end := sub.Items.Data[0].CurrentPeriodEnd
	if end == 0 {
		return nil
	}
	t := time.Unix(end, 0).UTC()
	return &t
}
