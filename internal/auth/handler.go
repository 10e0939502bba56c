package auth

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Handler exposes the signup/login endpoints over the handshake service.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler builds the HTTP handler for the auth endpoints.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

type phoneRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
}

type phoneVerifyRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type emailRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type emailVerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// RequestPhoneCode handles POST /auth/phone.
func (h *Handler) RequestPhoneCode(c *fiber.Ctx) error {
	var req phoneRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}
	if err := h.svc.RequestPhoneCode(c.UserContext(), req.Phone); err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Code sent"})
}

// VerifyPhoneCode handles POST /auth/phone/verify.
func (h *Handler) VerifyPhoneCode(c *fiber.Ctx) error {
	var req phoneVerifyRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}
	key, err := h.svc.VerifyPhoneCode(c.UserContext(), req.Phone, req.Code)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"auth_key": key})
}

// RegisterEmail handles POST /auth/email.
func (h *Handler) RegisterEmail(c *fiber.Ctx) error {
	var req emailRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}
	if err := h.svc.RegisterEmail(c.UserContext(), req.Email, req.Password); err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"message": "Code sent"})
}

// VerifyEmailCode handles POST /auth/email/verify.
func (h *Handler) VerifyEmailCode(c *fiber.Ctx) error {
	var req emailVerifyRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}
	key, err := h.svc.VerifyEmailCode(c.UserContext(), req.Email, req.Code)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"auth_key": key})
}

// LoginEmail handles POST /login.
func (h *Handler) LoginEmail(c *fiber.Ctx) error {
	var req emailRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}
	key, err := h.svc.LoginEmail(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"auth_key": key})
}

func (h *Handler) parse(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidCode):
		return fiber.NewError(http.StatusBadRequest, "Invalid code")
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotVerified):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidCredential):
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrAlreadyRegistered):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrUnauthorized):
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrDeliveryFailed):
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, "internal error")
	}
}
