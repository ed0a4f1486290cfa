package order

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/storefront-gateway/internal/auth"
	"github.com/wichananm65/storefront-gateway/internal/backend"
	"github.com/wichananm65/storefront-gateway/internal/errs"
)

// Handler serves the signed-in customer's orders.
type Handler struct {
	service *Service
	scopes  auth.ScopeSource
}

func NewHandler(s *Service, scopes auth.ScopeSource) *Handler {
	return &Handler{service: s, scopes: scopes}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/orders", h.getOrders)
	app.Get("/api/v1/orders/:id", h.getOrder)
}

func (h *Handler) getOrders(c *fiber.Ctx) error {
	if _, err := auth.UserIDFromCtx(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	sc, err := auth.RequestScope(c, h.scopes)
	if err != nil {
		return errs.Respond(c, err)
	}

	q := backend.ListQuery{Page: c.QueryInt("page"), PerPage: c.QueryInt("perPage")}
	if status := c.Query("status"); status != "" {
		q.Extra = map[string][]string{"status": {status}}
	}
	page, err := h.service.List(c.UserContext(), sc, q)
	if err != nil {
		return errs.Respond(c, backend.AsError(err))
	}
	return c.JSON(page)
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	if _, err := auth.UserIDFromCtx(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	id := c.Params("id")
	if n, err := strconv.ParseInt(id, 10, 64); err != nil || n <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid order id"})
	}
	sc, err := auth.RequestScope(c, h.scopes)
	if err != nil {
		return errs.Respond(c, err)
	}

	o, err := h.service.Get(c.UserContext(), sc, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "order not found"})
		}
		return errs.Respond(c, backend.AsError(err))
	}
	return c.JSON(fiber.Map{"data": o})
}
