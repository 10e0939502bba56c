package delivery

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/gramline/gramline/internal/config"
)

// SendGridGateway delivers codes by email through SendGrid.
type SendGridGateway struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

// NewSendGridGateway constructs a SendGrid-backed email gateway.
func NewSendGridGateway(cfg config.Config) *SendGridGateway {
	return &SendGridGateway{
		client:    sendgrid.NewSendClient(cfg.SendGridAPIKey),
		fromEmail: cfg.SendGridFromEmail,
		fromName:  cfg.SendGridFromName,
	}
}

// Deliver emails the code to the principal address.
func (g *SendGridGateway) Deliver(_ context.Context, principal, code string) (string, error) {
	from := mail.NewEmail(g.fromName, g.fromEmail)
	to := mail.NewEmail("", principal)
	subject := "Your Gramline verification code"
	plain := fmt.Sprintf("Your verification code is %s", code)
	html := fmt.Sprintf("<p>Your verification code is <strong>%s</strong></p>", code)

	resp, err := g.client.Send(mail.NewSingleEmail(from, subject, to, plain, html))
	if err != nil {
		return "", fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("sendgrid send: status %d", resp.StatusCode)
	}
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		return ids[0], nil
	}
	return "", nil
}
