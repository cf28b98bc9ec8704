// Package email provides the email client for sending transactional emails.
package email

import (
	"fmt"
	"os"

	"github.com/resendlabs/resend-go"
)

// Service defines the interface for sending emails, allowing for mock implementations in tests.
type Service interface {
	SendHighValueLeadAlert(toEmail string, alert LeadAlert) error
}

// LeadAlert carries the lead details rendered into the alert email.
type LeadAlert struct {
	VisitorID       string
	Score           int
	EngagementLevel string
	LastTrigger     string
	ActivityCount   int
}

// ResendClient is the concrete implementation of the email Service using the Resend API.
type ResendClient struct {
	client    *resend.Client
	fromEmail string
	fromName  string
}

// NewService creates a new email service client, returning the Service interface.
func NewService() (Service, error) {
	apiKey := os.Getenv("RESEND_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}

	fromEmail := os.Getenv("LEAD_ALERT_EMAIL_FROM")
	if fromEmail == "" {
		fromEmail = "noreply@helderdigital.nl" // Default from address
	}

	fromName := os.Getenv("LEAD_ALERT_EMAIL_FROM_NAME")
	if fromName == "" {
		fromName = "Helder Digital" // Default from name
	}

	return &ResendClient{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}, nil
}

// SendHighValueLeadAlert composes and sends the high-value lead notification.
func (c *ResendClient) SendHighValueLeadAlert(toEmail string, alert LeadAlert) error {
	subject := fmt.Sprintf("High-value lead: score %d (%s)", alert.Score, alert.EngagementLevel)

	htmlContent, err := renderLeadAlert(alert)
	if err != nil {
		return fmt.Errorf("failed to render lead alert email: %w", err)
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{toEmail},
		Subject: subject,
		Html:    htmlContent,
	}

	_, err = c.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send lead alert via Resend: %w", err)
	}

	return nil
}
