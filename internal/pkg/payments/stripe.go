package payments

import (
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/iommarket/marketplace/app/models"
	"github.com/iommarket/marketplace/internal/pkg/env"
)

// Client wraps the provider's checkout and webhook APIs.
type Client struct {
	webhookSecret string
	successURL    string
	cancelURL     string
}

// NewClientFromEnv configures the provider SDK from the environment.
// STRIPE_SECRET_KEY authenticates outbound calls; STRIPE_WEBHOOK_SECRET
// verifies inbound event signatures.
func NewClientFromEnv() *Client {
	stripe.Key = env.GetEnv("STRIPE_SECRET_KEY", "")
	base := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:8080")
	return &Client{
		webhookSecret: env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
		successURL:    base + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:     base + "/checkout/cancel",
	}
}

// ConstructWebhookEvent verifies an inbound payload's signature and returns
// the decoded event. Verification is the gate in front of the processor.
func (c *Client) ConstructWebhookEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
}

// CreateListingCheckout opens a one-off payment session for publishing a
// listing. The metadata is read back verbatim by the webhook path.
func (c *Client) CreateListingCheckout(listing *models.Listing, amountPence int64) (*stripe.CheckoutSession, error) {
	params := c.oneOffParams("Listing fee: "+listing.Title, amountPence)
	params.AddMetadata(MetaPurpose, PurposeListingPayment)
	params.AddMetadata(MetaListingID, fmt.Sprint(listing.ID))
	params.SetIdempotencyKey(fmt.Sprintf("listing-%d-%s", listing.ID, listing.UUID))

	session, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("payments: create listing checkout: %w", err)
	}
	return session, nil
}

// CreateFeaturedUpgradeCheckout opens a one-off payment session for marking a
// listing featured.
func (c *Client) CreateFeaturedUpgradeCheckout(listing *models.Listing, amountPence int64) (*stripe.CheckoutSession, error) {
	params := c.oneOffParams("Featured upgrade: "+listing.Title, amountPence)
	params.AddMetadata(MetaPurpose, PurposeFeaturedUpgrade)
	params.AddMetadata(MetaListingID, fmt.Sprint(listing.ID))
	params.SetIdempotencyKey(fmt.Sprintf("featured-%d-%s", listing.ID, listing.UUID))

	session, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("payments: create featured checkout: %w", err)
	}
	return session, nil
}

// CreateDealerSubscriptionCheckout opens a recurring-subscription session for
// a dealer against a configured price.
func (c *Client) CreateDealerSubscriptionCheckout(dealerID uint, priceID string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(c.successURL),
		CancelURL:  stripe.String(c.cancelURL),
	}
	params.AddMetadata(MetaPurpose, PurposeDealerSubscription)
	params.AddMetadata(MetaDealerID, fmt.Sprint(dealerID))

	session, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("payments: create subscription checkout: %w", err)
	}
	return session, nil
}

func (c *Client) oneOffParams(productName string, amountPence int64) *stripe.CheckoutSessionParams {
	return &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyGBP)),
					UnitAmount: stripe.Int64(amountPence),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(productName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(c.successURL),
		CancelURL:  stripe.String(c.cancelURL),
	}
}
