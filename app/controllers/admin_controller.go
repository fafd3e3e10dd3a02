package controllers

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/iommarket/marketplace/app/models"
	"github.com/iommarket/marketplace/app/repository"
	"github.com/iommarket/marketplace/internal/pkg/lifecycle"
	"github.com/iommarket/marketplace/internal/pkg/statistics"
	"github.com/iommarket/marketplace/internal/pkg/usercontext"
)

// AdminController handles moderation and configuration requests using the
// repository pattern.
type AdminController struct {
	repos *repository.Repositories
}

// NewAdminController creates a new admin controller with repository dependencies
func NewAdminController(repos *repository.Repositories) *AdminController {
	return &AdminController{
		repos: repos,
	}
}

type moderateRequest struct {
	Action string `json:"action" validate:"required,oneof=approve takedown"`
}

// HandleModerateListing applies a moderation decision. Approval moves the
// listing to LIVE and stamps the expiry date from the configured duration;
// takedown is terminal.
func (ac *AdminController) HandleModerateListing(c *fiber.Ctx) error {
	listing, err := ac.repos.Listing.GetByUUID(c.Params("uuid"))
	if err != nil {
		return listingLookupError(c, err)
	}

	var req moderateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	to, expiresAt := moderationTarget(req.Action, settings.ListingDurationDays())

	from := listing.Status
	if !lifecycle.IsValidTransition(from, to) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "illegal_transition",
			"message": fmt.Sprintf("Cannot move listing from %s to %s", lifecycle.Normalize(from), to),
		})
	}

	err = ac.repos.Listing.UpdateStatusIf(listing.ID, from, to, expiresAt)
	if errors.Is(err, models.ErrListingStatusConflict) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Listing changed concurrently, reload and retry"})
	}
	if err != nil {
		log.Printf("moderation of listing %d failed: %v", listing.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update listing"})
	}

	moderator := usercontext.GetUsername(c)
	log.Printf("listing %s moderated %s -> %s by %s", listing.UUID, lifecycle.Normalize(from), to, moderator)

	listing.Status = to
	listing.ExpiresAt = expiresAt
	return c.JSON(listingResponse(listing))
}

// moderationTarget maps a moderation action onto the transition target and,
// for approvals, the expiry stamp.
func moderationTarget(action string, durationDays int) (lifecycle.Status, *time.Time) {
	if action == "takedown" {
		return lifecycle.StatusTakenDown, nil
	}
	expiry := lifecycle.CalculateExpiryDate(time.Now(), durationDays)
	return lifecycle.StatusLive, &expiry
}

// HandleListingPayments returns the payment history of a listing so
// moderators can reconcile disputes against the provider's records.
func (ac *AdminController) HandleListingPayments(c *fiber.Ctx) error {
	listing, err := ac.repos.Listing.GetByUUID(c.Params("uuid"))
	if err != nil {
		return listingLookupError(c, err)
	}

	rows, err := ac.repos.Payment.ListByListingID(listing.ID)
	if err != nil {
		log.Printf("failed to list payments for listing %d: %v", listing.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load payments"})
	}

	items := make([]fiber.Map, 0, len(rows))
	for _, p := range rows {
		items = append(items, fiber.Map{
			"stripe_payment_id": p.StripePaymentID,
			"idempotency_key":   p.IdempotencyKey,
			"amount_pence":      p.AmountPence,
			"currency":          p.Currency,
			"status":            p.Status,
			"created_at":        p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(fiber.Map{"listing": listing.UUID, "payments": items})
}

// HandlePendingListings lists listings waiting for review.
func (ac *AdminController) HandlePendingListings(c *fiber.Ctx) error {
	count, err := ac.repos.Listing.CountByStatus(lifecycle.StatusPending)
	if err != nil {
		log.Printf("failed to count pending listings: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load queue"})
	}
	return c.JSON(fiber.Map{"pending": count})
}

// HandleStats returns the headline marketplace numbers.
func (ac *AdminController) HandleStats(c *fiber.Ctx) error {
	data := statistics.GetStatisticsData()
	return c.JSON(fiber.Map{
		"listings_total": data.TotalListings,
		"listings_live":  data.LiveListings,
		"listings_today": data.TodayListings,
		"users_total":    data.TotalUsers,
	})
}

// HandleGetSettings returns every persisted setting.
func (ac *AdminController) HandleGetSettings(c *fiber.Ctx) error {
	rows, err := ac.repos.Setting.GetAll()
	if err != nil {
		log.Printf("failed to load settings: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load settings"})
	}
	return c.JSON(fiber.Map{"settings": rows})
}

type updateSettingRequest struct {
	Value string `json:"value" validate:"required"`
	Type  string `json:"type" validate:"required,oneof=string number boolean"`
}

// HandleUpdateSetting writes one setting and invalidates the cache so the
// new value is visible before the TTL would have lapsed.
func (ac *AdminController) HandleUpdateSetting(c *fiber.Ctx) error {
	key := c.Params("key")
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Missing setting key"})
	}

	var req updateSettingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if err := ac.repos.Setting.SetValue(key, req.Value, req.Type); err != nil {
		log.Printf("failed to store setting %s: %v", key, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to store setting"})
	}
	settings.Invalidate()

	return c.JSON(fiber.Map{"updated": true})
}

// HandleDeleteSetting removes a setting; readers fall back to defaults.
func (ac *AdminController) HandleDeleteSetting(c *fiber.Ctx) error {
	key := c.Params("key")
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Missing setting key"})
	}

	if err := ac.repos.Setting.Delete(key); err != nil {
		log.Printf("failed to delete setting %s: %v", key, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete setting"})
	}
	settings.Invalidate()

	return c.JSON(fiber.Map{"deleted": true})
}
