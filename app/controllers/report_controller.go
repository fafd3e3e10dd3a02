package controllers

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/iommarket/marketplace/app/models"
	"github.com/iommarket/marketplace/app/repository"
	"github.com/iommarket/marketplace/internal/pkg/mail"
	"github.com/iommarket/marketplace/internal/pkg/ratelimit"
	"github.com/iommarket/marketplace/internal/pkg/usercontext"
)

// Reports are limited to 3 per 5 minutes per reporter email; contact
// requests to 3 per 5 minutes per sender email.
var (
	reportLimit  = ratelimit.Config{Window: 5 * time.Minute, MaxRequests: 3}
	contactLimit = ratelimit.Config{Window: 5 * time.Minute, MaxRequests: 3}
)

type reportListingRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Reason  string `json:"reason" validate:"required,max=50"`
	Details string `json:"details" validate:"max=2000"`
}

// HandleReportListing files an abuse report against a visible listing.
func HandleReportListing(c *fiber.Ctx) error {
	listing, err := findListingByParam(c)
	if err != nil {
		return listingLookupError(c, err)
	}
	if !listing.IsPubliclyVisible() {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Listing not found"})
	}

	var req reportListingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if !checkRateLimit(c, "report", req.Email, reportLimit) {
		return nil
	}

	report := &models.ListingReport{
		ListingID:     listing.ID,
		ReporterEmail: strings.ToLower(strings.TrimSpace(req.Email)),
		Reason:        req.Reason,
		Details:       req.Details,
		Status:        models.ReportStatusOpen,
	}
	ip := GetClientIP(c)
	if strings.Contains(ip, ":") {
		report.ReporterIPv6 = ip
	} else {
		report.ReporterIPv4 = ip
	}

	if err := repository.GetGlobalFactory().GetReportRepository().Create(report); err != nil {
		log.Printf("failed to store report for listing %d: %v", listing.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to file report"})
	}

	// Notification is best-effort; the report row is the source of truth.
	if err := mail.SendReportNotificationMail(listing.Title, listing.UUID, req.Reason); err != nil {
		log.Printf("report notification for listing %d failed: %v", listing.ID, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"filed": true})
}

type contactSellerRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

// HandleContactSeller forwards a buyer's message to the listing's seller.
func HandleContactSeller(c *fiber.Ctx) error {
	listing, err := findListingByParam(c)
	if err != nil {
		return listingLookupError(c, err)
	}
	if !listing.IsPubliclyVisible() {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Listing not found"})
	}

	var req contactSellerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if !checkRateLimit(c, "contact-seller", req.Email, contactLimit) {
		return nil
	}

	seller, err := repository.GetGlobalFactory().GetUserRepository().GetByID(listing.UserID)
	if err != nil {
		log.Printf("failed to load seller %d for listing %d: %v", listing.UserID, listing.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to contact seller"})
	}

	if err := mail.SendContactSellerMail(seller.Email, req.Email, listing.Title, req.Message); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to send message"})
	}

	return c.JSON(fiber.Map{"sent": true})
}

// HandleListReports returns open reports for moderators.
func HandleListReports(c *fiber.Ctx) error {
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	reports, err := repository.GetGlobalFactory().GetReportRepository().ListOpen(offset, limit)
	if err != nil {
		log.Printf("failed to list open reports: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load reports"})
	}
	return c.JSON(fiber.Map{"reports": reports, "offset": offset, "limit": limit})
}

// HandleResolveReport closes a report as resolved or dismissed.
func HandleResolveReport(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid report id"})
	}

	var req struct {
		Status string `json:"status" validate:"required,oneof=resolved dismissed"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if err := repository.GetGlobalFactory().GetReportRepository().Resolve(uint(id), req.Status); err != nil {
		log.Printf("failed to resolve report %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update report"})
	}

	moderator := usercontext.GetUsername(c)
	log.Printf("report %d closed as %s by %s", id, req.Status, moderator)
	return c.JSON(fiber.Map{"updated": true})
}
