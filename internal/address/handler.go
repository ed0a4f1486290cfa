package address

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/storefront-gateway/internal/auth"
	"github.com/wichananm65/storefront-gateway/internal/backend"
	"github.com/wichananm65/storefront-gateway/internal/device"
	"github.com/wichananm65/storefront-gateway/internal/errs"
)

// Handler serves saved addresses and the selected delivery location.
type Handler struct {
	service *Service
	stores  Stores
}

func NewHandler(s *Service, stores Stores) *Handler {
	return &Handler{service: s, stores: stores}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/location", h.getLocation)
	app.Put("/api/v1/location", h.setLocation)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/addresses", h.getAddresses)
}

func (h *Handler) getAddresses(c *fiber.Ctx) error {
	sc, err := auth.RequestScope(c, h.stores)
	if err != nil {
		return errs.Respond(c, err)
	}
	addrs, err := h.service.GetAddresses(c.UserContext(), sc)
	if err != nil {
		return errs.Respond(c, backend.AsError(err))
	}
	return c.JSON(fiber.Map{"data": addrs})
}

func (h *Handler) getLocation(c *fiber.Ctx) error {
	sel, err := h.service.GetLocation(c.UserContext(), device.ID(c))
	if err != nil {
		return errs.Respond(c, errs.New(errs.NotHydrated, "location is still loading"))
	}
	return c.JSON(sel)
}

func (h *Handler) setLocation(c *fiber.Ctx) error {
	sel, err := h.service.SetLocation(c.UserContext(), device.ID(c), c.Body())
	if err != nil {
		if errors.Is(err, ErrNoLocation) {
			return errs.Respond(c, errs.New(errs.InvalidArgument, "a location is required"))
		}
		return errs.Respond(c, err)
	}
	return c.JSON(sel)
}
