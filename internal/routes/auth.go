package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gramline/gramline/internal/auth"
)

// RegisterAuthRoutes wires the signup/login endpoints. The rate limiter
// guards only the endpoints that trigger outbound code delivery.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	if rateLimiter != nil {
		group.Post("/phone", rateLimiter, h.RequestPhoneCode)
		group.Post("/email", rateLimiter, h.RegisterEmail)
	} else {
		group.Post("/phone", h.RequestPhoneCode)
		group.Post("/email", h.RegisterEmail)
	}
	group.Post("/phone/verify", h.VerifyPhoneCode)
	group.Post("/email/verify", h.VerifyEmailCode)

	r.Post("/login", h.LoginEmail)
}
