package delivery

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/gramline/gramline/internal/config"
)

// TwilioGateway delivers codes as SMS through the Twilio REST API.
type TwilioGateway struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioGateway constructs a Twilio-backed SMS gateway.
func NewTwilioGateway(cfg config.Config) *TwilioGateway {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	return &TwilioGateway{client: client, from: cfg.TwilioFromPhone}
}

// Deliver sends the code to the phone number via Twilio.
func (g *TwilioGateway) Deliver(_ context.Context, principal, code string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(principal)
	params.SetFrom(g.from)
	params.SetBody(fmt.Sprintf("Your Gramline verification code is %s", code))

	resp, err := g.client.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("twilio send: %w", err)
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}
