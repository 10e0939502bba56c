package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/gramline/gramline/internal/auth"
)

// Locals keys populated by AuthKey for downstream handlers.
const (
	LocalUserID    = "user_id"
	LocalPrincipal = "principal"
)

// AuthKey guards protected routes with the opaque bearer key issued by the
// verification handshake.
func AuthKey(svc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer auth key")
		}
		key := strings.TrimSpace(authz[len("Bearer "):])

		user, err := svc.Authenticate(c.UserContext(), key)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid auth key")
		}

		principal := user.Phone
		if principal == "" {
			principal = user.Email
		}
		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalPrincipal, principal)
		return c.Next()
	}
}
