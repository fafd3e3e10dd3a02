package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/iommarket/marketplace/internal/pkg/env"
)

// SendMail sends an email via SMTP
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}

// SendContactSellerMail forwards a buyer's message about a listing to the
// seller. The buyer's address goes into the body, not the envelope, so the
// seller replies by choice.
func SendContactSellerMail(sellerEmail, buyerEmail, listingTitle, message string) error {
	subject := fmt.Sprintf("Enquiry about your listing: %s", listingTitle)
	body := fmt.Sprintf(
		"<p>You have a new enquiry about <strong>%s</strong>.</p>"+
			"<p>From: %s</p>"+
			"<p>%s</p>",
		listingTitle, buyerEmail, message,
	)
	return SendMail(sellerEmail, subject, body)
}

// SendReportNotificationMail tells the moderation address a listing was
// reported.
func SendReportNotificationMail(listingTitle, listingUUID, reason string) error {
	adminEmail := env.GetEnv("MODERATION_EMAIL", "")
	if adminEmail == "" {
		log.Printf("MODERATION_EMAIL not set, skipping report notification for listing %s", listingUUID)
		return nil
	}
	subject := fmt.Sprintf("Listing reported: %s", listingTitle)
	body := fmt.Sprintf(
		"<p>Listing <strong>%s</strong> (%s) was reported.</p>"+
			"<p>Reason: %s</p>",
		listingTitle, listingUUID, reason,
	)
	return SendMail(adminEmail, subject, body)
}
