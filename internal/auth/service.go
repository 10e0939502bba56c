package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gramline/gramline/internal/delivery"
	"github.com/gramline/gramline/internal/identity"
	"github.com/gramline/gramline/internal/otp"
)

// Service orchestrates the one-time-code handshake: issue a code, deliver
// it, verify it once, hand out a durable auth key.
type Service struct {
	users   identity.Repository
	codes   otp.Registry
	gateway delivery.Gateway
	logger  *slog.Logger
}

// NewService wires the handshake over its collaborators.
func NewService(users identity.Repository, codes otp.Registry, gateway delivery.Gateway, logger *slog.Logger) *Service {
	return &Service{users: users, codes: codes, gateway: gateway, logger: logger}
}

// RequestPhoneCode issues a fresh code for the phone number and hands it to
// the delivery gateway. A previously outstanding code is overwritten.
//
// The registry entry is written before the gateway call and deliberately
// left in place when delivery fails: the code stays valid if the user got
// it through another channel.
func (s *Service) RequestPhoneCode(ctx context.Context, phone string) error {
	return s.requestCode(ctx, phone)
}

// VerifyPhoneCode consumes the outstanding code for the phone number and
// returns the account's auth key, creating the account on first
// verification.
func (s *Service) VerifyPhoneCode(ctx context.Context, phone, candidate string) (string, error) {
	ok, err := s.codes.CheckAndConsume(ctx, phone, candidate)
	if err != nil {
		return "", fmt.Errorf("check code: %w", err)
	}
	if !ok {
		return "", ErrInvalidCode
	}

	key, err := s.users.EnsureAuthKeyByPhone(ctx, phone, otp.GenerateAuthKey())
	if err != nil {
		return "", fmt.Errorf("persist auth key: %w", err)
	}
	return key, nil
}

// RegisterEmail stores a new email account and sends a verification code to
// the address. No auth key is issued until the code is verified.
func (s *Service) RegisterEmail(ctx context.Context, email, password string) error {
	user := identity.User{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  password,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.CreateEmailUser(ctx, user); err != nil {
		if errors.Is(err, identity.ErrDuplicate) {
			return ErrAlreadyRegistered
		}
		return fmt.Errorf("create user: %w", err)
	}

	return s.requestCode(ctx, email)
}

// VerifyEmailCode consumes the outstanding code for the email address and
// returns the account's auth key.
func (s *Service) VerifyEmailCode(ctx context.Context, email, candidate string) (string, error) {
	ok, err := s.codes.CheckAndConsume(ctx, email, candidate)
	if err != nil {
		return "", fmt.Errorf("check code: %w", err)
	}
	if !ok {
		return "", ErrInvalidCode
	}

	key, err := s.users.EnsureAuthKeyByEmail(ctx, email, otp.GenerateAuthKey())
	if err != nil {
		return "", fmt.Errorf("persist auth key: %w", err)
	}
	return key, nil
}

// LoginEmail returns the auth key for a verified email account. The stored
// password is compared verbatim; see DESIGN.md on why hashing is not
// applied here.
func (s *Service) LoginEmail(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("find user: %w", err)
	}
	if user.Password != password {
		return "", ErrInvalidCredential
	}
	if !user.Verified() {
		return "", ErrNotVerified
	}
	return user.AuthKey, nil
}

// Authenticate resolves an auth key presented on a protected call.
func (s *Service) Authenticate(ctx context.Context, authKey string) (identity.User, error) {
	user, err := s.users.FindByAuthKey(ctx, authKey)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return identity.User{}, ErrUnauthorized
		}
		return identity.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *Service) requestCode(ctx context.Context, principal string) error {
	code := otp.GenerateCode()
	if err := s.codes.Put(ctx, principal, code); err != nil {
		return fmt.Errorf("store code: %w", err)
	}

	id, err := s.gateway.Deliver(ctx, principal, code)
	if err != nil {
		// Provider detail goes to the log only; clients get the generic
		// ErrDeliveryFailed.
		if s.logger != nil {
			s.logger.Error("code delivery failed", "principal", principal, "error", err)
		}
		return ErrDeliveryFailed
	}
	if s.logger != nil {
		s.logger.Info("code delivered", "principal", principal, "delivery_id", id)
	}
	return nil
}
