package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/gramline/gramline/internal/middleware"
)

// RegisterAccountRoutes wires endpoints that require an issued auth key.
func RegisterAccountRoutes(r fiber.Router) {
	r.Get("/me", func(c *fiber.Ctx) error {
		uid, _ := c.Locals(middleware.LocalUserID).(string)
		principal, _ := c.Locals(middleware.LocalPrincipal).(string)
		if uid == "" {
			return c.SendStatus(http.StatusUnauthorized)
		}
		return c.JSON(fiber.Map{
			"user_id":   uid,
			"principal": principal,
		})
	})
}
