package controllers

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/iommarket/marketplace/app/models"
	"github.com/iommarket/marketplace/app/repository"
	"github.com/iommarket/marketplace/internal/pkg/lifecycle"
	metrics "github.com/iommarket/marketplace/internal/pkg/metrics/counter"
	"github.com/iommarket/marketplace/internal/pkg/ratelimit"
	"github.com/iommarket/marketplace/internal/pkg/usercontext"
)

// Listing creation is limited to 5 per minute per user.
var createListingLimit = ratelimit.Config{Window: time.Minute, MaxRequests: 5}

type createListingRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"max=10000"`
	PricePence  int64  `json:"price_pence" validate:"gte=0"`
}

var validate = validator.New()

// HandleCreateListing creates a DRAFT listing owned by the caller.
func HandleCreateListing(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)

	if !settings.ListingsEnabled() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "listings_disabled", "message": "Listing creation is currently disabled"})
	}

	if !checkRateLimit(c, "create-listing", fmt.Sprint(user.UserID), createListingLimit) {
		return nil
	}

	var req createListingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	var dealerID *uint
	if dealer, err := repository.GetGlobalFactory().GetDealerRepository().GetByUserID(user.UserID); err == nil {
		dealerID = &dealer.ID
	}

	listing := models.NewListing(user.UserID, dealerID, req.Title, req.Description, req.PricePence)
	if err := repository.GetGlobalFactory().GetListingRepository().Create(listing); err != nil {
		log.Printf("failed to create listing for user %d: %v", user.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create listing"})
	}

	return c.Status(fiber.StatusCreated).JSON(listingResponse(listing))
}

// HandleGetListing returns a single listing. Non-visible listings are only
// shown to their owner and admins. Public views bump the view counter.
func HandleGetListing(c *fiber.Ctx) error {
	listing, err := findListingByParam(c)
	if err != nil {
		return listingLookupError(c, err)
	}

	user := usercontext.GetUserContext(c)
	isOwner := user.IsLoggedIn && user.UserID == listing.UserID
	if !listing.IsPubliclyVisible() && !isOwner && !user.IsAdmin {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Listing not found"})
	}

	if listing.IsPubliclyVisible() && !isOwner {
		if err := metrics.AddListingView(listing.ID); err != nil {
			log.Printf("failed to count view for listing %d: %v", listing.ID, err)
		}
	}

	return c.JSON(listingResponse(listing))
}

// HandleListMyListings returns the caller's listings, newest first.
func HandleListMyListings(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	listings, err := repository.GetGlobalFactory().GetListingRepository().ListByUserID(userID, offset, limit)
	if err != nil {
		log.Printf("failed to list listings for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load listings"})
	}

	items := make([]fiber.Map, 0, len(listings))
	for i := range listings {
		items = append(items, listingResponse(&listings[i]))
	}
	return c.JSON(fiber.Map{"listings": items, "offset": offset, "limit": limit})
}

// HandleSubmitListing moves the caller's DRAFT listing into review.
func HandleSubmitListing(c *fiber.Ctx) error {
	return ownerTransition(c, lifecycle.StatusPending)
}

// HandleRenewListing moves the caller's EXPIRED listing back to DRAFT so it
// can be edited and resubmitted.
func HandleRenewListing(c *fiber.Ctx) error {
	return ownerTransition(c, lifecycle.StatusDraft)
}

// ownerTransition applies a state-machine transition to a listing owned by
// the caller. The conditional write re-checks the status so a concurrent
// change cannot slip past the legality check.
func ownerTransition(c *fiber.Ctx, to lifecycle.Status) error {
	listing, err := findListingByParam(c)
	if err != nil {
		return listingLookupError(c, err)
	}

	if listing.UserID != usercontext.GetUserID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Not your listing"})
	}

	from := listing.Status
	if !lifecycle.IsValidTransition(from, to) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "illegal_transition",
			"message": fmt.Sprintf("Cannot move listing from %s to %s", lifecycle.Normalize(from), to),
		})
	}

	err = repository.GetGlobalFactory().GetListingRepository().UpdateStatusIf(listing.ID, from, to, nil)
	if errors.Is(err, models.ErrListingStatusConflict) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Listing changed concurrently, reload and retry"})
	}
	if err != nil {
		log.Printf("failed to transition listing %d to %s: %v", listing.ID, to, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update listing"})
	}

	listing.Status = to
	return c.JSON(listingResponse(listing))
}

func findListingByParam(c *fiber.Ctx) (*models.Listing, error) {
	return repository.GetGlobalFactory().GetListingRepository().GetByUUID(c.Params("uuid"))
}

func listingLookupError(c *fiber.Ctx, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Listing not found"})
	}
	log.Printf("listing lookup failed: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load listing"})
}

func listingResponse(l *models.Listing) fiber.Map {
	return fiber.Map{
		"uuid":        l.UUID,
		"title":       l.Title,
		"description": l.Description,
		"price_pence": l.PricePence,
		"status":      lifecycle.Normalize(l.Status),
		"featured":    l.Featured,
		"expires_at":  formatTimePtr(l.ExpiresAt),
		"view_count":  l.ViewCount,
		"created_at":  l.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
