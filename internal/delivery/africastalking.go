package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gramline/gramline/internal/config"
)

const defaultAfricasTalkingURL = "https://api.africastalking.com"

// AfricasTalkingGateway delivers codes as SMS through the Africa's Talking
// bulk messaging API. The provider ships no Go SDK, so this is a plain REST
// client.
type AfricasTalkingGateway struct {
	username string
	apiKey   string
	sender   string
	baseURL  string
	http     *http.Client
}

// NewAfricasTalkingGateway constructs an Africa's Talking SMS gateway.
func NewAfricasTalkingGateway(cfg config.Config) *AfricasTalkingGateway {
	return &AfricasTalkingGateway{
		username: cfg.AfricasTalkingUsername,
		apiKey:   cfg.AfricasTalkingAPIKey,
		sender:   cfg.AfricasTalkingSender,
		baseURL:  defaultAfricasTalkingURL,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Deliver sends the code to the phone number and returns the provider
// message id.
func (g *AfricasTalkingGateway) Deliver(ctx context.Context, principal, code string) (string, error) {
	form := url.Values{}
	form.Set("username", g.username)
	form.Set("to", principal)
	form.Set("message", fmt.Sprintf("Your Gramline verification code is %s", code))
	if g.sender != "" {
		form.Set("from", g.sender)
	}

	u := g.baseURL + "/version1/messaging"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apiKey", g.apiKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return "", &Error{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var decoded messagingResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if len(decoded.SMSMessageData.Recipients) == 0 {
		return "", &Error{StatusCode: resp.StatusCode, Message: decoded.SMSMessageData.Message}
	}

	recipient := decoded.SMSMessageData.Recipients[0]
	if recipient.Status != "Success" {
		return "", &Error{StatusCode: recipient.StatusCode, Message: recipient.Status}
	}

	return recipient.MessageID, nil
}

// Error represents a rejected or failed provider call.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("africastalking: %s (status %d)", e.Message, e.StatusCode)
}

// json wire types for API responses

type messagingResponse struct {
	SMSMessageData struct {
		Message    string `json:"Message"`
		Recipients []struct {
			Number     string `json:"number"`
			Status     string `json:"status"`
			StatusCode int    `json:"statusCode"`
			MessageID  string `json:"messageId"`
		} `json:"Recipients"`
	} `json:"SMSMessageData"`
}
