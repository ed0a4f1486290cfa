package favorite

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/storefront-gateway/internal/backend"
	"github.com/wichananm65/storefront-gateway/internal/device"
	"github.com/wichananm65/storefront-gateway/internal/state"
)

// Handler delegates favorite operations to the favorite service.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/favorites", h.getFavorites)
	app.Post("/api/v1/favorites", h.addFavorite)
	app.Delete("/api/v1/favorites", h.removeFavorite)
}

type favoriteRequest struct {
	ProductID int64 `json:"productId"`
}

func (h *Handler) addFavorite(c *fiber.Ctx) error {
	payload := new(favoriteRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.ProductID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid productId"})
	}

	favs, err := h.service.AddFavorite(c.UserContext(), device.ID(c), payload.ProductID)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyFavorite):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "product already in favorites"})
		case errors.Is(err, state.ErrNotHydrated):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "favorites are still loading"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"productId": payload.ProductID, "favoriteProductIds": favs})
}

func (h *Handler) removeFavorite(c *fiber.Ctx) error {
	payload := new(favoriteRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.ProductID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid productId"})
	}

	favs, err := h.service.RemoveFavorite(c.UserContext(), device.ID(c), payload.ProductID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFavorite):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "product not in favorites"})
		case errors.Is(err, state.ErrNotHydrated):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "favorites are still loading"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"productId": payload.ProductID, "favoriteProductIds": favs})
}

func (h *Handler) getFavorites(c *fiber.Ctx) error {
	if c.Query("expand") == "products" {
		products, err := h.service.GetFavoriteProducts(c.UserContext(), device.ID(c))
		if errors.Is(err, state.ErrNotHydrated) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "favorites are still loading"})
		}
		if err != nil {
			e := backend.AsError(err)
			return c.Status(e.HTTPStatus()).JSON(fiber.Map{"message": e.Message})
		}
		if products == nil {
			products = []backend.Product{}
		}
		return c.JSON(fiber.Map{"products": products})
	}

	favs, err := h.service.GetFavorites(c.UserContext(), device.ID(c))
	switch {
	case errors.Is(err, state.ErrNotHydrated):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "favorites are still loading"})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{"favoriteProductIds": favs})
}
