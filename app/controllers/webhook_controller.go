package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/iommarket/marketplace/internal/pkg/payments"
)

// HandleStripeWebhook receives signed provider events. The signature gate
// runs before the processor; a failed verification is the caller's fault
// (400), a processing failure is ours (500) so the provider redelivers.
func HandleStripeWebhook(c *fiber.Ctx) error {
	event, err := stripeClient.ConstructWebhookEvent(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		log.Printf("webhook signature verification failed: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_signature", "message": "Signature verification failed"})
	}

	if err := processor.Process(event); err != nil {
		var pv *payments.PolicyViolationError
		if errors.As(err, &pv) {
			// The money moved but the listing cannot follow. Acknowledge so
			// the provider stops redelivering; the payment row is kept for
			// operator reconciliation.
			log.Printf("webhook policy violation: %v", pv)
			return c.JSON(fiber.Map{"received": true, "warning": "policy_violation"})
		}
		log.Printf("webhook processing failed for event %s: %v", event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed", "message": "Event processing failed"})
	}

	return c.JSON(fiber.Map{"received": true})
}
