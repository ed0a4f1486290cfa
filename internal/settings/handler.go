package settings

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/storefront-gateway/internal/device"
)

// LocaleCookie is the cookie the web client keeps its locale in.
const LocaleCookie = "NEXT_LOCALE"

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/settings", h.get)
	app.Put("/api/v1/settings", h.update)
}

func (h *Handler) get(c *fiber.Ctx) error {
	s, err := h.service.Get(c.UserContext(), device.ID(c))
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "settings are still loading"})
	}
	return c.JSON(fiber.Map{"settings": s, "supportedLocales": h.service.locales.Supported()})
}

func (h *Handler) update(c *fiber.Ctx) error {
	payload := new(Settings)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	s, err := h.service.Update(c.UserContext(), device.ID(c), *payload)
	if err != nil {
		if errors.Is(err, ErrUnsupportedLocale) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "unsupported locale"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	c.Cookie(&fiber.Cookie{Name: LocaleCookie, Value: s.Locale, Path: "/", SameSite: fiber.CookieSameSiteLaxMode})
	return c.JSON(fiber.Map{"settings": s})
}
