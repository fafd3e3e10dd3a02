package controllers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/iommarket/marketplace/app/models"
	"github.com/iommarket/marketplace/app/repository"
	"github.com/iommarket/marketplace/internal/pkg/env"
	"github.com/iommarket/marketplace/internal/pkg/lifecycle"
	"github.com/iommarket/marketplace/internal/pkg/usercontext"
)

// HandleListingCheckout opens a payment session for publishing the caller's
// listing. During the launch free window no payment is taken and the listing
// moves straight into review.
func HandleListingCheckout(c *fiber.Ctx) error {
	listing, err := findListingByParam(c)
	if err != nil {
		return listingLookupError(c, err)
	}

	user := usercontext.GetUserContext(c)
	if listing.UserID != user.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Not your listing"})
	}

	from := lifecycle.Normalize(listing.Status)
	payable := lifecycle.IsValidTransition(from, lifecycle.StatusPending) || from == lifecycle.StatusExpired
	if !payable {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "illegal_transition",
			"message": "Listing cannot be submitted for publication from its current state",
		})
	}

	if settings.IsListingFreeNow(time.Now()) {
		if err := submitWithoutPayment(listing); err != nil {
			if errors.Is(err, models.ErrListingStatusConflict) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Listing changed concurrently, reload and retry"})
			}
			log.Printf("free-window submit failed for listing %d: %v", listing.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to submit listing"})
		}
		return c.JSON(fiber.Map{"free": true, "status": lifecycle.StatusPending})
	}

	session, err := stripeClient.CreateListingCheckout(listing, settings.ListingFeePence())
	if err != nil {
		log.Printf("checkout session for listing %d failed: %v", listing.ID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "payment_provider_error", "message": "Failed to start checkout"})
	}

	return c.JSON(fiber.Map{"free": false, "checkout_url": session.URL, "session_id": session.ID})
}

// submitWithoutPayment walks the listing into PENDING the same way a paid
// webhook would, including the renewal edge for expired listings.
func submitWithoutPayment(listing *models.Listing) error {
	repo := repository.GetGlobalFactory().GetListingRepository()
	if lifecycle.Normalize(listing.Status) == lifecycle.StatusExpired {
		if err := repo.UpdateStatusIf(listing.ID, listing.Status, lifecycle.StatusDraft, nil); err != nil {
			return err
		}
		return repo.UpdateStatusIf(listing.ID, lifecycle.StatusDraft, lifecycle.StatusPending, nil)
	}
	return repo.UpdateStatusIf(listing.ID, listing.Status, lifecycle.StatusPending, nil)
}

// HandleFeaturedCheckout opens a payment session for marking the caller's
// live listing featured.
func HandleFeaturedCheckout(c *fiber.Ctx) error {
	listing, err := findListingByParam(c)
	if err != nil {
		return listingLookupError(c, err)
	}

	user := usercontext.GetUserContext(c)
	if listing.UserID != user.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Not your listing"})
	}
	if !listing.IsPubliclyVisible() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "not_live", "message": "Only live listings can be featured"})
	}
	if listing.Featured {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already_featured", "message": "Listing is already featured"})
	}

	session, err := stripeClient.CreateFeaturedUpgradeCheckout(listing, settings.FeaturedFeePence())
	if err != nil {
		log.Printf("featured checkout for listing %d failed: %v", listing.ID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "payment_provider_error", "message": "Failed to start checkout"})
	}

	return c.JSON(fiber.Map{"checkout_url": session.URL, "session_id": session.ID})
}

// HandleDealerSubscriptionCheckout opens a recurring subscription session for
// the caller's dealer profile.
func HandleDealerSubscriptionCheckout(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)

	dealer, err := repository.GetGlobalFactory().GetDealerRepository().GetByUserID(user.UserID)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "No dealer profile"})
	}

	// An entitling subscription makes a second checkout pointless.
	subs, err := repository.GetGlobalFactory().GetSubscriptionRepository().ListByDealerID(dealer.ID)
	if err == nil {
		for i := range subs {
			if subs[i].IsEntitling() {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already_subscribed", "message": "Dealer subscription already active"})
			}
		}
	}

	priceID := env.GetEnv("STRIPE_DEALER_PRICE_ID", "")
	if priceID == "" {
		log.Print("STRIPE_DEALER_PRICE_ID not configured")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "not_configured", "message": "Dealer subscriptions are not available"})
	}

	session, err := stripeClient.CreateDealerSubscriptionCheckout(dealer.ID, priceID)
	if err != nil {
		log.Printf("subscription checkout for dealer %d failed: %v", dealer.ID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "payment_provider_error", "message": "Failed to start checkout"})
	}

	return c.JSON(fiber.Map{"checkout_url": session.URL, "session_id": session.ID})
}
