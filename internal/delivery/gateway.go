// Package delivery sends one-time codes to users over the configured
// channel. The handshake only depends on the Gateway contract; the concrete
// channel (console, SMS provider, email) is a deployment decision.
package delivery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gramline/gramline/internal/config"
)

// Gateway transmits a one-time code to a principal. It returns the
// provider's message identifier when one exists. Any error is fatal for the
// current request; the caller never retries.
type Gateway interface {
	Deliver(ctx context.Context, principal, code string) (string, error)
}

// New builds the gateway selected by cfg.DeliveryDriver. Credential
// presence was already validated by config.Load.
func New(cfg config.Config, logger *slog.Logger) (Gateway, error) {
	switch cfg.DeliveryDriver {
	case config.DriverConsole:
		return NewConsoleGateway(logger), nil
	case config.DriverTwilio:
		return NewTwilioGateway(cfg), nil
	case config.DriverAfricasTalking:
		return NewAfricasTalkingGateway(cfg), nil
	case config.DriverSendGrid:
		return NewSendGridGateway(cfg), nil
	default:
		return nil, fmt.Errorf("unknown delivery driver %q", cfg.DeliveryDriver)
	}
}
