package cart

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/storefront-gateway/internal/backend"
	"github.com/wichananm65/storefront-gateway/internal/coupon"
	"github.com/wichananm65/storefront-gateway/internal/device"
	"github.com/wichananm65/storefront-gateway/internal/errs"
	"github.com/wichananm65/storefront-gateway/internal/state"
)

// Handler exposes the device cart over HTTP.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/cart", h.getCart)
	app.Delete("/api/v1/cart", h.clearCart)
	app.Post("/api/v1/cart/items", h.addItem)
	app.Patch("/api/v1/cart/items/:index", h.setQuantity)
	app.Post("/api/v1/cart/items/:index/increment", h.increment)
	app.Post("/api/v1/cart/items/:index/decrement", h.decrement)
	app.Patch("/api/v1/cart/items/:index/addons/:addonId", h.setAddon)
	app.Delete("/api/v1/cart/items/:index", h.removeItem)
	app.Post("/api/v1/cart/coupon", h.applyCoupon)
	app.Delete("/api/v1/cart/coupon", h.removeCoupon)
	app.Post("/api/v1/cart/sync", h.sync)
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	v, err := h.service.Get(c.UserContext(), device.ID(c))
	return h.reply(c, v, err)
}

func (h *Handler) clearCart(c *fiber.Ctx) error {
	v, err := h.service.Clear(c.UserContext(), device.ID(c))
	return h.reply(c, v, err)
}

func (h *Handler) addItem(c *fiber.Ctx) error {
	payload := new(AddRequest)
	if err := c.BodyParser(payload); err != nil {
		return errs.Respond(c, errs.New(errs.InvalidArgument, err.Error()))
	}
	if payload.ProductID <= 0 {
		return errs.Respond(c, errs.New(errs.InvalidArgument, "invalid productId"))
	}
	v, err := h.service.AddItem(c.UserContext(), device.ID(c), *payload)
	return h.reply(c, v, err)
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *Handler) setQuantity(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return errs.Respond(c, errs.New(errs.InvalidArgument, "invalid line index"))
	}
	payload := new(quantityRequest)
	if err := c.BodyParser(payload); err != nil || payload.Quantity == nil {
		return errs.Respond(c, errs.New(errs.InvalidArgument, "quantity is required"))
	}
	v, err := h.service.SetQuantity(c.UserContext(), device.ID(c), index, *payload.Quantity)
	return h.reply(c, v, err)
}

func (h *Handler) increment(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return errs.Respond(c, errs.New(errs.InvalidArgument, "invalid line index"))
	}
	v, err := h.service.Increment(c.UserContext(), device.ID(c), index)
	return h.reply(c, v, err)
}

func (h *Handler) decrement(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return errs.Respond(c, errs.New(errs.InvalidArgument, "invalid line index"))
	}
	v, err := h.service.Decrement(c.UserContext(), device.ID(c), index)
	return h.reply(c, v, err)
}

type addonRequest struct {
	Active   bool `json:"active"`
	Quantity int  `json:"quantity"`
}

func (h *Handler) setAddon(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return errs.Respond(c, errs.New(errs.InvalidArgument, "invalid line index"))
	}
	addonID, err := strconv.ParseInt(c.Params("addonId"), 10, 64)
	if err != nil || addonID <= 0 {
		return errs.Respond(c, errs.New(errs.InvalidArgument, "invalid addonId"))
	}
	payload := new(addonRequest)
	if err := c.BodyParser(payload); err != nil {
		return errs.Respond(c, errs.New(errs.InvalidArgument, err.Error()))
	}
	v, err := h.service.SetAddon(c.UserContext(), device.ID(c), index, addonID, payload.Active, payload.Quantity)
	return h.reply(c, v, err)
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return errs.Respond(c, errs.New(errs.InvalidArgument, "invalid line index"))
	}
	v, err := h.service.Remove(c.UserContext(), device.ID(c), index)
	return h.reply(c, v, err)
}

type couponRequest struct {
	Code string `json:"code"`
}

func (h *Handler) applyCoupon(c *fiber.Ctx) error {
	payload := new(couponRequest)
	if err := c.BodyParser(payload); err != nil {
		return errs.Respond(c, errs.New(errs.InvalidArgument, err.Error()))
	}
	v, err := h.service.ApplyCoupon(c.UserContext(), device.ID(c), payload.Code)
	return h.reply(c, v, err)
}

func (h *Handler) removeCoupon(c *fiber.Ctx) error {
	v, err := h.service.RemoveCoupon(c.UserContext(), device.ID(c))
	return h.reply(c, v, err)
}

func (h *Handler) sync(c *fiber.Ctx) error {
	v, err := h.service.Sync(c.UserContext(), device.ID(c))
	return h.reply(c, v, err)
}

func (h *Handler) reply(c *fiber.Ctx, v View, err error) error {
	if err == nil {
		return c.Status(fiber.StatusOK).JSON(v)
	}

	var invalid *coupon.InvalidError
	switch {
	case errors.Is(err, ErrDifferentShop):
		e := errs.New(errs.CartDifferentShop, "Your cart contains products from another shop")
		e.Details = fiber.Map{"policy": h.service.Policy()}
		return errs.Respond(c, e)
	case errors.Is(err, ErrLineNotFound), errors.Is(err, ErrProductNotFound):
		return errs.Respond(c, errs.New(errs.NotFound, err.Error()))
	case errors.Is(err, ErrAddonNotFound), errors.Is(err, ErrStockNotFound), errors.Is(err, ErrInvalidQuantity):
		return errs.Respond(c, errs.New(errs.InvalidArgument, err.Error()))
	case errors.Is(err, ErrShopChanged):
		return errs.Respond(c, errs.New(errs.Conflict, "Your cart changed, please apply the coupon again"))
	case errors.Is(err, ErrEmpty):
		return errs.Respond(c, errs.New(errs.CartEmpty, "Your cart is empty"))
	case errors.As(err, &invalid):
		return errs.Respond(c, errs.New(errs.CouponInvalid, invalid.Message))
	case errors.Is(err, state.ErrNotHydrated):
		return errs.Respond(c, errs.New(errs.NotHydrated, "Cart is still loading"))
	default:
		return errs.Respond(c, backend.AsError(err))
	}
}
