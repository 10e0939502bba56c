package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/gramline/gramline/internal/identity"
	"github.com/gramline/gramline/internal/logging"
	"github.com/gramline/gramline/internal/otp"
)

// captureGateway records every delivery so tests can read the issued code.
type captureGateway struct {
	deliveries []struct{ principal, code string }
	fail       bool
}

func (g *captureGateway) Deliver(_ context.Context, principal, code string) (string, error) {
	g.deliveries = append(g.deliveries, struct{ principal, code string }{principal, code})
	if g.fail {
		return "", errors.New("provider rejected the message")
	}
	return "delivery-1", nil
}

func (g *captureGateway) lastCode(t *testing.T) string {
	t.Helper()
	if len(g.deliveries) == 0 {
		t.Fatal("no deliveries recorded")
	}
	return g.deliveries[len(g.deliveries)-1].code
}

func newTestService(gateway *captureGateway) (*Service, *otp.MemoryRegistry) {
	registry := otp.NewMemoryRegistry(0)
	svc := NewService(identity.NewMemoryRepository(), registry, gateway, logging.Discard())
	return svc, registry
}

func TestVerifyWithoutRequestFails(t *testing.T) {
	svc, _ := newTestService(&captureGateway{})

	_, err := svc.VerifyPhoneCode(context.Background(), "+15551234567", "123456")
	if !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
}

func TestPhoneHandshakeSingleUse(t *testing.T) {
	gateway := &captureGateway{}
	svc, registry := newTestService(gateway)
	ctx := context.Background()

	if err := svc.RequestPhoneCode(ctx, "+15551234567"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if got := registry.Len(); got != 1 {
		t.Fatalf("expected one pending code, got %d", got)
	}

	code := gateway.lastCode(t)
	key, err := svc.VerifyPhoneCode(ctx, "+15551234567", code)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(key) != otp.AuthKeyLength {
		t.Fatalf("expected %d-char auth key, got %q", otp.AuthKeyLength, key)
	}

	if _, err := svc.VerifyPhoneCode(ctx, "+15551234567", code); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected reuse of the code to fail, got %v", err)
	}
}

func TestPhoneHandshakeReusesAuthKey(t *testing.T) {
	gateway := &captureGateway{}
	svc, _ := newTestService(gateway)
	ctx := context.Background()

	_ = svc.RequestPhoneCode(ctx, "+15551234567")
	first, err := svc.VerifyPhoneCode(ctx, "+15551234567", gateway.lastCode(t))
	if err != nil {
		t.Fatalf("first verify: %v", err)
	}

	_ = svc.RequestPhoneCode(ctx, "+15551234567")
	second, err := svc.VerifyPhoneCode(ctx, "+15551234567", gateway.lastCode(t))
	if err != nil {
		t.Fatalf("second verify: %v", err)
	}
	if first != second {
		t.Fatalf("expected the stored auth key to be reused, got %q then %q", first, second)
	}
}

func TestSecondRequestInvalidatesFirstCode(t *testing.T) {
	gateway := &captureGateway{}
	svc, _ := newTestService(gateway)
	ctx := context.Background()

	_ = svc.RequestPhoneCode(ctx, "+15551234567")
	firstCode := gateway.lastCode(t)

	_ = svc.RequestPhoneCode(ctx, "+15551234567")
	secondCode := gateway.lastCode(t)

	if firstCode != secondCode {
		if _, err := svc.VerifyPhoneCode(ctx, "+15551234567", firstCode); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("expected the overwritten code to fail, got %v", err)
		}
	}
	if _, err := svc.VerifyPhoneCode(ctx, "+15551234567", secondCode); err != nil {
		t.Fatalf("expected the latest code to verify, got %v", err)
	}
}

func TestDeliveryFailureKeepsCodeValid(t *testing.T) {
	gateway := &captureGateway{fail: true}
	svc, registry := newTestService(gateway)
	ctx := context.Background()

	err := svc.RequestPhoneCode(ctx, "+15551234567")
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}

	// The entry stays in the registry; the code is usable if the user got
	// it out of band.
	if got := registry.Len(); got != 1 {
		t.Fatalf("expected the pending code to survive delivery failure, got %d entries", got)
	}
	if _, err := svc.VerifyPhoneCode(ctx, "+15551234567", gateway.lastCode(t)); err != nil {
		t.Fatalf("expected the undelivered code to verify, got %v", err)
	}
}

func TestEmailRegistrationFlow(t *testing.T) {
	gateway := &captureGateway{}
	svc, _ := newTestService(gateway)
	ctx := context.Background()

	if err := svc.RegisterEmail(ctx, "a@x.com", "pw1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Login before verification is rejected.
	if _, err := svc.LoginEmail(ctx, "a@x.com", "pw1"); !errors.Is(err, ErrNotVerified) {
		t.Fatalf("expected ErrNotVerified, got %v", err)
	}

	key, err := svc.VerifyEmailCode(ctx, "a@x.com", gateway.lastCode(t))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	got, err := svc.LoginEmail(ctx, "a@x.com", "pw1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got != key {
		t.Fatalf("expected login to return the issued key, got %q want %q", got, key)
	}
}

func TestEmailRegistrationDuplicate(t *testing.T) {
	svc, _ := newTestService(&captureGateway{})
	ctx := context.Background()

	if err := svc.RegisterEmail(ctx, "a@x.com", "pw1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.RegisterEmail(ctx, "a@x.com", "pw2"); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestLoginErrors(t *testing.T) {
	gateway := &captureGateway{}
	svc, _ := newTestService(gateway)
	ctx := context.Background()

	if _, err := svc.LoginEmail(ctx, "missing@x.com", "pw"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_ = svc.RegisterEmail(ctx, "a@x.com", "pw1")
	if _, err := svc.LoginEmail(ctx, "a@x.com", "wrong"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	gateway := &captureGateway{}
	svc, _ := newTestService(gateway)
	ctx := context.Background()

	_ = svc.RequestPhoneCode(ctx, "+15551234567")
	key, err := svc.VerifyPhoneCode(ctx, "+15551234567", gateway.lastCode(t))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	user, err := svc.Authenticate(ctx, key)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.Phone != "+15551234567" {
		t.Fatalf("unexpected user %+v", user)
	}

	if _, err := svc.Authenticate(ctx, "bogus-key"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
