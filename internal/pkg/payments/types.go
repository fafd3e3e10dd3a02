package payments

import (
	"fmt"

	"github.com/iommarket/marketplace/internal/pkg/lifecycle"
)

// Purpose tags attached to checkout sessions as metadata. The webhook path
// reads the tag back verbatim to decide how to process the completion event.
const (
	PurposeListingPayment     = "listing_payment"
	PurposeFeaturedUpgrade    = "featured_upgrade"
	PurposeDealerSubscription = "dealer_subscription"
)

// Metadata keys used on checkout sessions.
const (
	MetaPurpose   = "type"
	MetaListingID = "listingId"
	MetaDealerID  = "dealerId"
)

// PolicyViolationError reports a payment-completion event that references a
// listing whose current state cannot legally move to the paid state. The
// payment record is kept; the transition is refused for operator inspection
// instead of being forced.
type PolicyViolationError struct {
	ListingID uint
	From      lifecycle.Status
	To        lifecycle.Status
}

func (e *PolicyViolationError) Error() string {
	return fmt.Sprintf("payments: listing %d cannot move %s -> %s", e.ListingID, e.From, e.To)
}
