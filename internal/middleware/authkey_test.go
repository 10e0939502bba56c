package middleware

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/gramline/gramline/internal/auth"
	"github.com/gramline/gramline/internal/delivery"
	"github.com/gramline/gramline/internal/identity"
	"github.com/gramline/gramline/internal/logging"
	"github.com/gramline/gramline/internal/otp"
)

func setupProtectedApp(t *testing.T) (*fiber.App, string) {
	t.Helper()

	repo := identity.NewMemoryRepository()
	svc := auth.NewService(repo, otp.NewMemoryRegistry(0), delivery.NewConsoleGateway(logging.Discard()), logging.Discard())

	key, err := repo.EnsureAuthKeyByPhone(context.Background(), "+15551234567", otp.GenerateAuthKey())
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	app := fiber.New()
	app.Get("/me", AuthKey(svc), func(c *fiber.Ctx) error {
		principal, _ := c.Locals(LocalPrincipal).(string)
		return c.JSON(fiber.Map{"principal": principal})
	})
	return app, key
}

func TestAuthKeyAcceptsIssuedKey(t *testing.T) {
	app, key := setupProtectedApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+key)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected %d got %d", fiber.StatusOK, resp.StatusCode)
	}
}

func TestAuthKeyRejectsUnknownKey(t *testing.T) {
	app, _ := setupProtectedApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer not-a-key")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected %d got %d", fiber.StatusUnauthorized, resp.StatusCode)
	}
}

func TestAuthKeyRequiresBearerHeader(t *testing.T) {
	app, _ := setupProtectedApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/me", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected %d got %d", fiber.StatusUnauthorized, resp.StatusCode)
	}
}
