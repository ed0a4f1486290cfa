package checkout

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/storefront-gateway/internal/auth"
	"github.com/wichananm65/storefront-gateway/internal/backend"
	"github.com/wichananm65/storefront-gateway/internal/cart"
	"github.com/wichananm65/storefront-gateway/internal/device"
	"github.com/wichananm65/storefront-gateway/internal/errs"
	"github.com/wichananm65/storefront-gateway/internal/state"
)

type Handler struct {
	service *Service
	scopes  auth.ScopeSource
}

func NewHandler(s *Service, scopes auth.ScopeSource) *Handler {
	return &Handler{service: s, scopes: scopes}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/checkout", h.placeOrder)
}

func (h *Handler) placeOrder(c *fiber.Ctx) error {
	payload := new(Request)
	if err := c.BodyParser(payload); err != nil {
		return errs.Respond(c, errs.New(errs.InvalidArgument, err.Error()))
	}
	sc, err := auth.RequestScope(c, h.scopes)
	if err != nil {
		return errs.Respond(c, errs.New(errs.NotHydrated, "Session is still loading"))
	}

	res, err := h.service.PlaceOrder(c.UserContext(), device.ID(c), sc, *payload)
	switch {
	case err == nil:
		return c.Status(fiber.StatusCreated).JSON(res)
	case errors.Is(err, ErrUnauthenticated):
		return errs.Respond(c, errs.New(errs.Unauthenticated, err.Error()))
	case errors.Is(err, ErrAddressRequired), errors.Is(err, ErrPaymentMethod), errors.Is(err, ErrDeliveryType):
		return errs.Respond(c, errs.New(errs.ValidationFailed, err.Error()))
	case errors.Is(err, cart.ErrEmpty):
		return errs.Respond(c, errs.New(errs.CartEmpty, "Your cart is empty"))
	case errors.Is(err, state.ErrNotHydrated):
		return errs.Respond(c, errs.New(errs.NotHydrated, "Cart is still loading"))
	default:
		return errs.Respond(c, backend.AsError(err))
	}
}
