package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/storefront-gateway/internal/device"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/auth/session", h.getSession)
	app.Post("/api/v1/auth/session", h.signIn)
	app.Delete("/api/v1/auth/session", h.signOut)
	app.Get("/api/v1/auth/providers", h.providers)
}

type signInRequest struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (h *Handler) signIn(c *fiber.Ctx) error {
	payload := new(signInRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "token is required"})
	}

	st, err := h.service.SignIn(c.UserContext(), device.ID(c), payload.Token, payload.User)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid token"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(st)
}

func (h *Handler) signOut(c *fiber.Ctx) error {
	if err := h.service.SignOut(c.UserContext(), device.ID(c)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) getSession(c *fiber.Ctx) error {
	st, err := h.service.Status(c.UserContext(), device.ID(c))
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"hydrated": false, "isAuthenticated": false})
	}
	return c.JSON(st)
}

func (h *Handler) providers(c *fiber.Ctx) error {
	return c.JSON(h.service.Providers())
}
